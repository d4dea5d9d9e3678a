// Package chunk streams files into bounded base64 chunks and reassembles them.
//
// The Encoder never encodes a partial 3-byte input group until the source is
// exhausted, so concatenating every chunk it emits yields exactly the standard
// base64 encoding of the whole source. The Reassembler undoes this on the
// receiving side, decoding whole 4-character groups as they become available.
package chunk
