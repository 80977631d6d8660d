package output

// Event is one launch lifecycle record.
//
// Types, in emission order:
//   - run.started         Dir
//   - provenance.written  Path
//   - link.created | link.unchanged | link.relinked | link.skipped | link.failed
//     Path (link), Target, Message (failure reason)
//   - tee.unavailable     Message
//   - command             Strategy, Command, LogPath
//   - run.finished        ExitCode, Message
type Event struct {
	Type     string `json:"type"`
	Time     string `json:"time,omitempty"`
	Dir      string `json:"dir,omitempty"`
	Path     string `json:"path,omitempty"`
	Target   string `json:"target,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Command  string `json:"command,omitempty"`
	LogPath  string `json:"log_path,omitempty"`
	Message  string `json:"message,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

const (
	EventRunStarted        = "run.started"
	EventProvenanceWritten = "provenance.written"
	EventLinkPrefix        = "link."
	EventLinkSkipped       = "link.skipped"
	EventLinkFailed        = "link.failed"
	EventTeeUnavailable    = "tee.unavailable"
	EventCommand           = "command"
	EventRunFinished       = "run.finished"
)

// Finished builds a run.finished event carrying the trainer's exit status.
func Finished(code int, msg string) Event {
	return Event{Type: EventRunFinished, ExitCode: &code, Message: msg}
}
