// Package transport provides the shared text buffers clipxfer frames travel
// through.
//
// The core abstraction is the Transport interface:
//
//	type Transport interface {
//	    Put(text string) error
//	    Get() (string, error)
//	    Close() error
//	}
//
// Put replaces the buffer content and Get returns the current snapshot, which
// may be unchanged since the last read. Nothing else is guaranteed: the last
// write wins and any other program may overwrite the buffer at any time.
//
// # Implementations
//
// Clipboard uses the operating system clipboard:
//
//	t, err := transport.NewClipboard()
//
// SharedFile uses a regular file, for example on a network share or a removable
// drive mounted on both machines. Writes are atomic renames so a reader never
// observes a half-written frame:
//
//	t, err := transport.NewSharedFile("/mnt/share/clip.txt")
//
// Memory keeps the buffer in process and records every write, which is what the
// package tests and loopback runs use:
//
//	t := transport.NewMemory()
//
// # Errors
//
// Every failed read or write wraps ErrTransportFailure; calls on a closed
// transport return ErrClosed.
package transport
