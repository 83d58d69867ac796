// Package console implements the local line-oriented command console.
//
// Input lines are read on a dedicated goroutine and delivered on a channel
// the scheduler drains without blocking. Output is plain text written one
// line at a time.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"
)

// maxLineSize bounds one input line. Longer lines are discarded whole.
const maxLineSize = 4096

// Logger is the subset of logging.Logger the reader uses.
type Logger interface {
	Warn(msg string, args ...any)
}

// Lines reads newline-terminated lines from r and sends them on the
// returned channel, which is closed at EOF or on a read error.
//
// A line longer than maxLineSize is dropped with a warning and reading
// continues with the next line. logger may be nil.
//
// The channel is buffered so a burst of typed commands is not lost between
// ticks. Reads from r cannot be interrupted; the goroutine ends with r.
func Lines(r io.Reader, buffer int, logger Logger) <-chan string {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan string, buffer)

	go func() {
		defer close(ch)
		br := bufio.NewReaderSize(r, maxLineSize)
		for {
			line, isPrefix, err := br.ReadLine()
			if isPrefix {
				err = skipRest(br)
				warn(logger, "console line too long, discarded", "max_bytes", maxLineSize)
				if err == nil {
					continue
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					warn(logger, "console read failed", "error", err)
				}
				return
			}
			ch <- string(line)
		}
	}()

	return ch
}

// skipRest consumes the remainder of an overlong line.
func skipRest(br *bufio.Reader) error {
	for {
		_, isPrefix, err := br.ReadLine()
		if err != nil || !isPrefix {
			return err
		}
	}
}

func warn(logger Logger, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

// Writer writes console text lines. Safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteLine writes line followed by a newline. Write errors are ignored;
// the console is best effort.
func (c *Writer) WriteLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, line)
}

// WriteLines writes each line in order without interleaving.
func (c *Writer) WriteLines(lines []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range lines {
		_, _ = fmt.Fprintln(c.w, line)
	}
}
