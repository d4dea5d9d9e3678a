package file

import "errors"

var (
	// ErrSequenceMismatch indicates a frame whose seq is not the expected one.
	ErrSequenceMismatch = errors.New("sequence mismatch")

	// ErrNoProgress indicates no frame was accepted within the receive timeout.
	ErrNoProgress = errors.New("no progress within timeout")

	// ErrDirectoryTraversal indicates a received name that would escape the
	// output directory.
	ErrDirectoryTraversal = errors.New("path contains directory traversal")

	// ErrOutputFailure indicates the output file could not be opened or written.
	ErrOutputFailure = errors.New("output failure")

	// ErrSourceFailure indicates a source file could not be opened or read.
	ErrSourceFailure = errors.New("source failure")

	// ErrSizeMismatch indicates a finished file whose written size differs
	// from the size its sender announced.
	ErrSizeMismatch = errors.New("written size differs from announced size")

	// ErrNoOpenFile indicates control-protocol data arriving before a start frame.
	ErrNoOpenFile = errors.New("no open file")

	// ErrUnknownProtocol indicates an unrecognized protocol name.
	ErrUnknownProtocol = errors.New("unknown protocol")

	// ErrNoTarget indicates a receiver configured without an output target.
	ErrNoTarget = errors.New("no output target")
)
