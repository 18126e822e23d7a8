package domain

import "errors"

var (
	// ErrSourceNotFound aborts a run: the instruments table could not be located.
	ErrSourceNotFound = errors.New("source table not found")
	// ErrSummaryNotFound is raised by the notification step when no run summary exists.
	ErrSummaryNotFound = errors.New("run summary not found")
	// ErrSummaryMalformed is raised by the notification step on an unreadable summary.
	ErrSummaryMalformed = errors.New("run summary malformed")
	// ErrNotifierMisconfigured reports a delivery channel without credentials or target.
	ErrNotifierMisconfigured = errors.New("notifier misconfigured")
)

// ExitCode is the process completion status.
type ExitCode int

const (
	ExitOK             ExitCode = 0
	ExitFailure        ExitCode = 1
	ExitSourceMissing  ExitCode = 2
	ExitSummaryInvalid ExitCode = 3
)

// Int returns the exit code as an int for os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}

// ExitCodeFor maps an error returned by a command to its exit code.
func ExitCodeFor(err error) ExitCode {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrSourceNotFound):
		return ExitSourceMissing
	case errors.Is(err, ErrSummaryNotFound), errors.Is(err, ErrSummaryMalformed):
		return ExitSummaryInvalid
	default:
		return ExitFailure
	}
}

// Message is a rendered notification ready for a delivery channel.
type Message struct {
	Subject     string
	Text        string
	HTML        string
	Markdown    string
	Attachments []string
}
