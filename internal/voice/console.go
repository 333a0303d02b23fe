package voice

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Console talks over a terminal. Typed lines stand in for speech.
type Console struct {
	in      io.Reader
	out     io.Writer
	timeout time.Duration

	once  sync.Once
	lines chan string
}

// NewConsole reads utterances from in and writes replies to out. A
// timeout of zero waits for input indefinitely.
func NewConsole(in io.Reader, out io.Writer, timeout time.Duration) *Console {
	return &Console{
		in:      in,
		out:     out,
		timeout: timeout,
		lines:   make(chan string),
	}
}

// Listen returns the next line, an empty string on timeout and io.EOF once
// the input is closed.
func (c *Console) Listen(ctx context.Context) (string, error) {
	c.once.Do(func() { go c.read() })
	fmt.Fprint(c.out, "You: ")

	var expired <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	case <-expired:
		fmt.Fprintln(c.out)
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Console) Speak(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.out, "AlziE: %s\n", text)
	return err
}

// read feeds lines to Listen. A line typed after a timeout is kept for the
// next Listen call.
func (c *Console) read() {
	defer close(c.lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		c.lines <- scanner.Text()
	}
}
