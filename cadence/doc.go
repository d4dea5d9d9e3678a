// Package cadence decides when the next frame is written or the next poll is
// taken.
//
// A Cadence blocks in Wait until the caller may proceed:
//
//	c, err := cadence.NewAligned(10*time.Second, 0, cadence.SystemClock{})
//	for ... {
//	    if err := c.Wait(ctx); err != nil {
//	        return err
//	    }
//	    // write or read the shared buffer
//	}
//
// Interval sleeps a fixed delay. Aligned sleeps until the next wall-clock tick
// (a multiple of Every plus Offset) so that a sender writing on the tick and a
// receiver polling a few seconds after it never race. Manual waits for a key
// press and returns ErrQuit when the operator presses q. SkipFirst wraps any
// cadence so the very first Wait returns immediately.
//
// All waits honor context cancellation. Time is read through the Clock
// interface so tests can run without sleeping.
package cadence
