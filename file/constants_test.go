package file

import "time"

// Common test chunk sizes in base64 characters.
const (
	testChunkTiny  = 4
	testChunkSmall = 16
	testChunk1KB   = 1024
)

// Common test file size constants.
const (
	testFileSize1KB = 1024
	testFileSize4KB = 4096
)

// testPollInterval is the delay the mock clock advances per poll.
const testPollInterval = time.Second

const testFileName = "x.bin"
