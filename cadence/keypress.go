package cadence

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const keyInterrupt = 0x03

// Manual waits for the operator before every step. On a terminal a single
// key press is enough; otherwise a full line is read. Pressing q (or Ctrl-C
// while the terminal is in raw mode) returns ErrQuit.
//
// A Manual is not safe for concurrent use. A read left blocked by a cancelled
// Wait is handed to the next Wait, so no key is lost.
type Manual struct {
	in     io.Reader
	out    io.Writer
	prompt string
	lines  *bufio.Reader
	fd     int
	raw    bool

	// pending is the result channel of a read still in flight.
	pending chan keyResult
}

// NewManual creates a keypress cadence reading from in and writing prompt to
// out before every wait.
func NewManual(in io.Reader, out io.Writer, prompt string) *Manual {
	m := &Manual{in: in, out: out, prompt: prompt, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		m.fd = int(f.Fd())
		m.raw = true
	} else {
		m.lines = bufio.NewReader(in)
	}
	return m
}

type keyResult struct {
	key string
	err error
}

// Wait prints the prompt and blocks until a key or line arrives.
func (m *Manual) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.out != nil && m.prompt != "" {
		fmt.Fprint(m.out, m.prompt)
	}

	var restore func()
	if m.raw {
		state, err := term.MakeRaw(m.fd)
		if err != nil {
			return fmt.Errorf("enable raw terminal: %w", err)
		}
		restore = func() { _ = term.Restore(m.fd, state) }
	}

	done := m.pending
	if done == nil {
		done = make(chan keyResult, 1)
		go func() {
			key, err := m.read()
			done <- keyResult{key: key, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		m.pending = done
		if restore != nil {
			restore()
		}
		return ctx.Err()
	case res := <-done:
		m.pending = nil
		if restore != nil {
			restore()
		}
		if m.raw && m.out != nil {
			fmt.Fprintln(m.out)
		}
		if res.err != nil {
			if res.err == io.EOF {
				logrus.WithFields(logrus.Fields{
					"function": "Manual.Wait",
				}).Info("Input closed, stopping")
				return ErrQuit
			}
			return fmt.Errorf("read key: %w", res.err)
		}
		if isQuit(res.key) {
			return ErrQuit
		}
		return nil
	}
}

func (m *Manual) read() (string, error) {
	if m.raw {
		buf := make([]byte, 1)
		if _, err := m.in.Read(buf); err != nil {
			return "", err
		}
		return string(buf), nil
	}

	line, err := m.lines.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return line, err
}

func isQuit(key string) bool {
	key = strings.TrimSpace(key)
	if len(key) == 1 && key[0] == keyInterrupt {
		return true
	}
	return strings.EqualFold(key, "q")
}
