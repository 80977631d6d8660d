package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

type recordingSink struct {
	writes   []Event
	writeErr error
	closeErr error
	closed   bool
}

func (s *recordingSink) Write(e Event) error {
	s.writes = append(s.writes, e)
	return s.writeErr
}

func (s *recordingSink) Close() error {
	s.closed = true
	return s.closeErr
}

func newTestManager(t *testing.T, errOut *bytes.Buffer, sinks ...Sink) *Manager {
	t.Helper()
	mgr := NewManager(errOut)
	mgr.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)) }
	for _, s := range sinks {
		if err := mgr.AddSink(s); err != nil {
			t.Fatalf("AddSink error: %v", err)
		}
	}
	return mgr
}

func TestManagerFansOutAndCloses(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	mgr := newTestManager(t, &bytes.Buffer{}, a, b)

	mgr.Emit(Event{Type: EventRunStarted})
	mgr.Emit(Finished(0, ""))
	if err := mgr.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	for i, s := range []*recordingSink{a, b} {
		if len(s.writes) != 2 {
			t.Fatalf("sink %d: expected 2 writes, got %d", i, len(s.writes))
		}
		if s.writes[1].Type != EventRunFinished {
			t.Fatalf("sink %d: second event = %q", i, s.writes[1].Type)
		}
		if !s.closed {
			t.Fatalf("sink %d: expected Close to be called", i)
		}
	}
}

func TestManagerStampsTime(t *testing.T) {
	rec := &recordingSink{}
	mgr := newTestManager(t, &bytes.Buffer{}, rec)

	mgr.Emit(Event{Type: EventCommand})
	mgr.Emit(Event{Type: EventCommand, Time: "given"})

	if got, want := rec.writes[0].Time, "2026-03-01T11:00:00Z"; got != want {
		t.Fatalf("stamped time = %q, want %q", got, want)
	}
	if rec.writes[1].Time != "given" {
		t.Fatalf("existing time overwritten: %q", rec.writes[1].Time)
	}
}

func TestManagerEmitReportsEachSinkOnce(t *testing.T) {
	var errOut bytes.Buffer
	bad := &recordingSink{writeErr: errors.New("disk full")}
	good := &recordingSink{}
	mgr := newTestManager(t, &errOut, bad, good)

	for i := 0; i < 3; i++ {
		mgr.Emit(Event{Type: EventCommand})
	}

	if n := strings.Count(errOut.String(), "disk full"); n != 1 {
		t.Fatalf("expected one report, got %d:\n%s", n, errOut.String())
	}
	if !strings.HasPrefix(errOut.String(), "Error: write *output.recordingSink:") {
		t.Fatalf("unexpected report: %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "disk full") {
		t.Fatalf("report should carry the sink error: %q", errOut.String())
	}
	if len(bad.writes) != 3 || len(good.writes) != 3 {
		t.Fatalf("expected every event delivered to both sinks, got %d and %d", len(bad.writes), len(good.writes))
	}
}

func TestManagerCloseJoinsErrors(t *testing.T) {
	mgr := newTestManager(t, &bytes.Buffer{},
		&recordingSink{closeErr: errors.New("c1")},
		&recordingSink{closeErr: errors.New("c2")},
	)

	err := mgr.Close()
	if err == nil || !strings.Contains(err.Error(), "c1") || !strings.Contains(err.Error(), "c2") {
		t.Fatalf("expected both close errors, got %v", err)
	}
}

func TestManagerRejectsNil(t *testing.T) {
	if err := NewManager(nil).AddSink(nil); err == nil {
		t.Fatal("expected error for nil sink")
	}

	var mgr *Manager
	if err := mgr.Close(); err == nil {
		t.Fatal("expected error from nil manager Close")
	}
	mgr.Emit(Event{})
}
