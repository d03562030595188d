package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sjsage522/rankworker/logger"
	trackerrors "sjsage522/rankworker/pkg/errors"

	"github.com/go-resty/resty/v2"
)

const (
	embedColor          = 0x00B0F4
	maxDescriptionRunes = 4096
	chartFileName       = "graph.png"
)

type discordImage struct {
	URL string `json:"url"`
}

type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Timestamp   string        `json:"timestamp"`
	Image       *discordImage `json:"image,omitempty"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordNotifier posts reports to a Discord webhook as an embed, with the
// trend chart attached when the report carries one.
type DiscordNotifier struct {
	client     *resty.Client
	webhookURL string
}

// NewDiscordNotifier creates a notifier for webhookURL
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetHeader("User-Agent", "rankworker")

	return &DiscordNotifier{
		client:     client,
		webhookURL: webhookURL,
	}
}

// Notify sends the report
func (n *DiscordNotifier) Notify(ctx context.Context, report Report) error {
	payload, err := json.Marshal(buildPayload(report))
	if err != nil {
		return trackerrors.NewNotification("discord", "failed to encode payload", err)
	}

	req := n.client.R().SetContext(ctx)
	if len(report.Chart) > 0 {
		req = req.
			SetMultipartFormData(map[string]string{"payload_json": string(payload)}).
			SetFileReader("file", chartFileName, bytes.NewReader(report.Chart))
	} else {
		req = req.
			SetHeader("Content-Type", "application/json").
			SetBody(payload)
	}

	resp, err := req.Post(n.webhookURL)
	if err != nil {
		return trackerrors.NewNotification("discord", "webhook request failed", err)
	}
	if !resp.IsSuccess() {
		return trackerrors.NewNotification("discord", fmt.Sprintf("webhook returned %d: %s", resp.StatusCode(), resp.String()), nil)
	}

	logger.ForNotifier().Info().
		Int("status", resp.StatusCode()).
		Bool("chart", len(report.Chart) > 0).
		Msg("report delivered")
	return nil
}

func buildPayload(report Report) discordPayload {
	embed := discordEmbed{
		Title:       fmt.Sprintf("🎮 %s PS Store ranking update", report.Product),
		Description: truncateRunes(FormatDescription(report), maxDescriptionRunes),
		Color:       embedColor,
		Timestamp:   report.Timestamp.UTC().Format(time.RFC3339),
	}
	if len(report.Chart) > 0 {
		embed.Image = &discordImage{URL: "attachment://" + chartFileName}
	}
	return discordPayload{Embeds: []discordEmbed{embed}}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
