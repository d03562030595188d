package publisher

// Publisher represents a service for publishing run reports
type Publisher interface {
	// Publish publishes a message under key to the report stream
	Publish(key string, message []byte) error

	// TrimStreams trims the stream to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
