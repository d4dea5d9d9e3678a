// Package limits provides centralized size constants, validation functions and
// human-oriented size parsing for clipxfer.
//
// # Size Hierarchy
//
// A clipboard frame carries one base64 payload chunk plus a single header line.
// The limits bound each stage of that pipeline:
//
//   - MinChunkSize (4 chars): one base64 group, the smallest payload that can
//     ever be decoded on its own.
//
//   - DefaultChunkSize (4 MiB of base64 text): comfortable for every desktop
//     clipboard implementation tested.
//
//   - MaxChunkSize (256 MiB of base64 text): hard ceiling for a single
//     clipboard write; larger values exhaust memory on the receiving side.
//
//   - DefaultReadBlock (1 MiB): the block size used when streaming a source file
//     into the base64 encoder.
//
// # Validation Functions
//
//	if err := limits.ValidateChunkSize(n); err != nil {
//	    if errors.Is(err, limits.ErrChunkTooSmall) {
//	        // handle
//	    }
//	}
//
// # Size Parsing
//
// ParseSize accepts the suffixes used on the command line:
//
//	limits.ParseSize("4m")      // 4194304
//	limits.ParseSize("512kb")   // 524288
//	limits.ParseSize("1.5k")    // 1536
//	limits.ParseSize("1 << 20") // 1048576
//
// FormatBytes renders a byte count the way progress lines show it ("1.50MB").
package limits
