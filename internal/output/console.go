package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ConsoleSink prints events for the operator, on stderr by default so the
// trainer's own stdout stays untouched.
type ConsoleSink struct {
	writer io.Writer
	format string // "text", "ndjson"
	mu     sync.Mutex

	warn *color.Color
	bold *color.Color

	// flush is set when the writer buffers (bufio.Writer and friends).
	flush func() error
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stderr
	}
	if format == "" {
		format = "text"
	}
	s := &ConsoleSink{
		writer: w,
		format: format,
		warn:   color.New(color.FgYellow),
		bold:   color.New(color.Bold),
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		s.flush = f.Flush
	}
	return s
}

func (s *ConsoleSink) Write(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch s.format {
	case "ndjson":
		err = json.NewEncoder(s.writer).Encode(e)
	case "text":
		err = s.writeText(e)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	if err != nil || s.flush == nil {
		return err
	}
	return s.flush()
}

func (s *ConsoleSink) writeText(e Event) error {
	var err error
	switch {
	case e.Type == EventRunStarted:
		_, err = fmt.Fprintf(s.writer, "run dir: %s\n", e.Dir)
	case e.Type == EventProvenanceWritten:
		_, err = fmt.Fprintf(s.writer, "provenance: %s\n", e.Path)
	case e.Type == EventLinkFailed:
		_, err = s.warn.Fprintf(s.writer, "[warn] Could not create symlink %s -> %s: %s\n", e.Path, e.Target, e.Message)
	case e.Type == EventLinkSkipped:
		_, err = fmt.Fprintln(s.writer, "dataset link: skipped")
	case strings.HasPrefix(e.Type, EventLinkPrefix):
		_, err = fmt.Fprintf(s.writer, "dataset link: %s -> %s (%s)\n", e.Path, e.Target, strings.TrimPrefix(e.Type, EventLinkPrefix))
	case e.Type == EventTeeUnavailable:
		_, err = s.warn.Fprintf(s.writer, "[warn] %s\n", e.Message)
	case e.Type == EventCommand:
		_, err = s.bold.Fprintf(s.writer, ">>> %s\n", e.Command)
	case e.Type == EventRunFinished:
		if e.Message != "" {
			_, err = fmt.Fprintln(s.writer, e.Message)
		}
	}
	return err
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "text" && s.format != "ndjson" {
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
	return nil
}
