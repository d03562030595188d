package helpers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// PageURL returns the listing URL for the given 1-based page. Storefront
// category URLs end in the page number ("/category/<id>/1").
func PageURL(listingURL string, page int) (string, error) {
	if page < 1 {
		return "", errors.New("page must be >= 1")
	}

	u, err := url.Parse(listingURL)
	if err != nil {
		return "", err
	}

	path := strings.TrimSuffix(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", errors.New("listing URL has no path")
	}

	if _, err := strconv.Atoi(path[idx+1:]); err == nil {
		path = path[:idx]
	}
	u.Path = path + "/" + strconv.Itoa(page)

	return u.String(), nil
}

// HostKey returns a cache-safe key for the host of rawURL
func HostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.NewReplacer(".", "_", ":", "_").Replace(u.Host)
}
