// Package launcher runs the external training entry point and propagates its
// exit status.
package launcher

import "os"

// Separator optionally delimits launcher flags from forwarded trainer arguments.
const Separator = "--"

// StripSeparator drops one leading "--". All other arguments are returned
// unchanged and in order.
func StripSeparator(args []string) []string {
	if len(args) > 0 && args[0] == Separator {
		args = args[1:]
	}
	return append([]string(nil), args...)
}

// BuildCommand returns the trainer argv: python in unbuffered mode, the entry
// script, then the forwarded arguments verbatim.
func BuildCommand(python, script string, extra []string) []string {
	argv := make([]string, 0, 3+len(extra))
	argv = append(argv, python, "-u", script)
	return append(argv, extra...)
}

// Command is one fully-resolved trainer invocation.
type Command struct {
	Argv []string
	// Dir is the external repo root; the trainer resolves paths relative to it.
	Dir string
	// Env holds KEY=VALUE overrides layered on top of the launcher's environment.
	Env []string
}

// Environ returns the child environment. exec keeps the last value of a
// duplicated key, so overrides win over inherited values.
func (c Command) Environ() []string {
	env := os.Environ()
	out := make([]string, 0, len(env)+len(c.Env))
	out = append(out, env...)
	return append(out, c.Env...)
}
