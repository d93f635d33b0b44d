package core

// DefaultOutboundBuffer is the event buffer size used when none is configured.
const DefaultOutboundBuffer = 32

// Client is one live connection as seen by the core layer.
// The transport owns Events and reads from it; the core only writes.
type Client struct {
	ID     string
	Events chan *Event
}

// NewClient constructs a client with a buffered outbound channel.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultOutboundBuffer
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, buffer),
	}
}
