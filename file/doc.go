// Package file drives clipxfer transfers: the sender loop that turns source
// files into frames on a shared buffer, and the receiver loop that polls the
// buffer and rebuilds the files.
//
// # Protocols
//
// Two wire protocols are supported. ProtocolHeaderCRC puts a header line in
// front of every payload chunk:
//
//	B64CLIP1|seq=1|total=3|len=4096|crc=1A2B3C4D|fsize=10240|name=report.pdf
//	JVBERi0xLjcNCiW1tbW1DQoxIDAgb2JqDQo8PC9UeXBlL0NhdGFsb2cvUGFnZXMgMiAwIFI...
//
// The receiver enforces the sequence, checks length and CRC, and completes the
// file when seq reaches total. ProtocolControl sends bare base64 text and marks
// file boundaries with start and end control frames; every data chunk is a
// whole number of base64 groups so it decodes on its own.
//
// # Sending
//
//	sources, err := file.CollectSources("./outbox", true, []string{".pdf"})
//	sender, err := file.NewSender(t, file.SenderOptions{
//	    Protocol:  file.ProtocolHeaderCRC,
//	    ChunkSize: 4 << 20,
//	    Cadence:   c,
//	})
//	results, err := sender.Send(ctx, sources)
//
// # Receiving
//
//	receiver, err := file.NewReceiver(t, file.ReceiverOptions{
//	    Protocol: file.ProtocolHeaderCRC,
//	    Target:   file.DirectoryTarget("./inbox"),
//	    Cadence:  c,
//	    Timeout:  5 * time.Minute,
//	})
//	err = receiver.Run(ctx)
//
// Each received file is tracked by a Session which owns the output handle, the
// base64 pending buffer and a BLAKE2b-256 digest of the written bytes. The
// sender logs the same digest for the source so the two can be compared by eye.
//
// # Error Handling
//
// Damaged or out-of-order frames (ErrSequenceMismatch, frame.ErrLengthMismatch,
// frame.ErrChecksumMismatch, frame.ErrMalformedHeader) are logged and skipped;
// the sender will overwrite the buffer with the next frame anyway. Undecodable
// payload data (chunk.ErrCorruptBase64) aborts the session and ends the run, as
// do output write failures and ErrNoProgress. The sender aborts on the first
// transport.ErrTransportFailure.
//
// # Time Handling
//
// Both loops read time through cadence.Clock so timeouts and rates can be
// tested with a mock clock.
package file
