package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/sirupsen/logrus"
)

// ErrClipboardUnsupported indicates no clipboard utility is available.
var ErrClipboardUnsupported = errors.New("system clipboard unsupported")

// Clipboard is a Transport backed by the operating system clipboard.
type Clipboard struct {
	mu     sync.Mutex
	closed bool
}

// NewClipboard creates a clipboard transport. It fails when the platform has
// no usable clipboard (for example a Linux host without xclip, xsel or
// wl-clipboard).
func NewClipboard() (*Clipboard, error) {
	if clipboard.Unsupported {
		logrus.WithFields(logrus.Fields{
			"function": "NewClipboard",
		}).Error("No clipboard utility found")
		return nil, ErrClipboardUnsupported
	}
	return &Clipboard{}, nil
}

// Put writes text to the clipboard.
func (c *Clipboard) Put(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: clipboard write: %v", ErrTransportFailure, err)
	}
	return nil
}

// Get reads the current clipboard text.
func (c *Clipboard) Get() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: clipboard read: %v", ErrTransportFailure, err)
	}
	return text, nil
}

// Close marks the transport closed. The clipboard content is left as is.
func (c *Clipboard) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
