package frame

import (
	"fmt"
	"hash/crc32"
)

// Checksum returns the IEEE CRC-32 of the payload text bytes.
func Checksum(payload string) uint32 {
	return crc32.ChecksumIEEE([]byte(payload))
}

// FormatChecksum renders a CRC as eight uppercase hex digits.
func FormatChecksum(crc uint32) string {
	return fmt.Sprintf("%08X", crc)
}
