package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TimeLayout stamps events that do not carry a time yet.
const TimeLayout = time.RFC3339Nano

// Sink is a destination for launch events.
type Sink interface {
	Write(e Event) error
	Close() error
}

// Manager stamps launch events and fans them out to every registered sink.
type Manager struct {
	sinks  []Sink
	now    func() time.Time
	errOut io.Writer

	// reported holds sinks whose failure Emit already printed.
	reported map[Sink]bool
}

// NewManager returns a Manager that reports Emit failures to errOut
// (os.Stderr when nil).
func NewManager(errOut io.Writer) *Manager {
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Manager{now: time.Now, errOut: errOut, reported: map[Sink]bool{}}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Emit delivers e to every sink. One failing sink does not stop the others;
// each failing sink is reported once to the error writer and then ignored.
func (m *Manager) Emit(e Event) {
	if m == nil {
		return
	}
	for _, se := range m.write(e) {
		if m.reported[se.sink] {
			continue
		}
		m.reported[se.sink] = true
		fmt.Fprintf(m.errOut, "Error: %v\n", se)
	}
}

func (m *Manager) write(e Event) []*sinkError {
	if e.Time == "" {
		e.Time = m.now().UTC().Format(TimeLayout)
	}
	var errs []*sinkError
	for _, s := range m.sinks {
		if err := s.Write(e); err != nil {
			errs = append(errs, &sinkError{sink: s, err: err})
		}
	}
	return errs
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}

type sinkError struct {
	sink Sink
	err  error
}

func (e *sinkError) Error() string { return fmt.Sprintf("write %T: %v", e.sink, e.err) }

