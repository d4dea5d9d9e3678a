package transport

import "errors"

var (
	// ErrTransportFailure indicates the shared buffer could not be read or written.
	ErrTransportFailure = errors.New("transport failure")

	// ErrClosed indicates use of a transport after Close.
	ErrClosed = errors.New("transport closed")
)

// Transport is a shared text buffer visible to both ends of a transfer.
// This abstraction allows the clipboard, a shared file or an in-memory buffer
// to be used interchangeably by the sender and the receiver.
type Transport interface {
	// Put replaces the buffer content with text.
	Put(text string) error

	// Get returns the current buffer content.
	Get() (string, error)

	// Close releases any resources held by the transport.
	Close() error
}
