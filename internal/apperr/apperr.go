package apperr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

const (
	ContactInstructor      = "Please contact the instructor."
	MaybeContactInstructor = "If you believe this is an error in the course configuration, contact the instructor."
	ValidDate              = "Please enter a valid date."
)

type Kind int

const (
	KindGeneric Kind = iota
	KindFilePresence
	KindTrust
	KindGraceNoBudget
	KindGraceLimit
	KindGraceInsufficient
	KindDateRange
	KindUnauthorized
	KindInactive
	KindNoSuchAssignment
	KindNoSuchMember
)

// Error is a user-facing failure: what went wrong, and what the user
// should do about it.
type Error struct {
	Kind        Kind
	Description string
	Advice      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Description, e.Advice)
}

func New(kind Kind, description, advice string) *Error {
	return &Error{Kind: kind, Description: description, Advice: advice}
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func InvalidUser(username string) *Error {
	return New(KindGeneric, fmt.Sprintf("User '%s' is invalid.", username), MaybeContactInstructor)
}

func NoBaseDir(path string) *Error {
	return New(KindGeneric,
		fmt.Sprintf("Base submission directory for course '%s' does not exist.", path),
		ContactInstructor)
}

func SpecIO(path string, err error) *Error {
	return New(KindGeneric,
		fmt.Sprintf("Specification file at %s could not be read, IO Error: %v", path, err),
		ContactInstructor)
}

func BadSpec(path, desc string) *Error {
	return New(KindGeneric,
		fmt.Sprintf("Specification file at %s is malformed: %s", path, desc),
		ContactInstructor)
}

func IO(desc, path string, err error) *Error {
	return New(KindGeneric,
		fmt.Sprintf("%s at %s: %v", desc, path, err),
		MaybeContactInstructor)
}

func Command(cmd string, err error) *Error {
	return New(KindGeneric,
		fmt.Sprintf("Failed to run command %s: %v", cmd, err),
		ContactInstructor)
}

func Subprocess(desc, stderr string) *Error {
	return New(KindGeneric,
		fmt.Sprintf("Subprocess %s failed: %s", desc, stderr),
		ContactInstructor)
}

func InvalidDate(date string) *Error {
	return New(KindGeneric, fmt.Sprintf("Invalid date: %q", date), ValidDate)
}

func DateOutOfRange(date time.Time) *Error {
	return New(KindDateRange, fmt.Sprintf("Date out of range: %s", date), ValidDate)
}

func InvalidAssignment(name string) *Error {
	return New(KindNoSuchAssignment,
		fmt.Sprintf("Assignment '%s' is invalid or non-existent.", name),
		MaybeContactInstructor)
}

func NoSuchMember(name string) *Error {
	return New(KindNoSuchMember,
		fmt.Sprintf("User '%s' is not a member of this course.", name),
		MaybeContactInstructor)
}

func NoSetup(name string) *Error {
	return New(KindGeneric,
		fmt.Sprintf("Setup files are not available for assignment '%s'.", name),
		MaybeContactInstructor)
}

func Unauthorized() *Error {
	return New(KindUnauthorized, "Action is not authorized.", ContactInstructor)
}

func NotInstructorOwned(path string) *Error {
	return New(KindTrust,
		fmt.Sprintf("Extension file at %s was not made by the instructor.", path),
		ContactInstructor)
}

func GraceNotInCourse() *Error {
	return New(KindGraceNoBudget,
		"This course does not provide grace days.",
		"Assignments should be turned in on-time for full credit.")
}

func GraceLimit() *Error {
	return New(KindGraceLimit,
		"The number of grace days requested exceeds the per-assignment grace day limit.",
		"Assignments should be turned in before the grace day limit for full credit.")
}

func GraceInsufficient() *Error {
	return New(KindGraceInsufficient,
		"There aren't enough free grace days to provide such an extension.",
		"To increase the number of available grace days, remove grace days from other assignments.")
}

// AssertFile checks that a path names an ordinary file, reporting
// which way it falls short.
func AssertFile(path string) *Error {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return New(KindFilePresence,
			fmt.Sprintf("File not found: %s", path),
			"Please ensure that the file exists.")
	case info.IsDir():
		return New(KindFilePresence,
			fmt.Sprintf("File is actually a directory: %s", path),
			"Please ensure that the file is not a directory.")
	case !info.Mode().IsRegular():
		return New(KindFilePresence,
			fmt.Sprintf("File is neither a normal file nor a directory: %s", path),
			"Please ensure that the file is actually a file.")
	}
	return nil
}

func TableError() *Error {
	return New(KindGeneric, "Failure while constructing output table.", ContactInstructor)
}

func Custom(description, advice string) *Error {
	return New(KindGeneric, description, advice)
}

// Render writes an error in the tool's two-line terminal form. Errors
// without advice fall back to a single red line.
func Render(w io.Writer, err error) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	var errLog *Log
	if errors.As(err, &errLog) {
		errLog.Render(w)
		return
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		red.Fprintf(w, "! %s\n", appErr.Description)
		yellow.Fprintf(w, "> %s\n", appErr.Advice)
		return
	}
	red.Fprintf(w, "! %v\n", err)
}

// Log accumulates independent failures so one bad file does not hide
// the rest.
type Log struct {
	errs []error
}

func (l *Log) Push(err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

func (l *Log) Empty() bool {
	return len(l.errs) == 0
}

func (l *Log) Errors() []error {
	return l.errs
}

func (l *Log) Err() error {
	if l.Empty() {
		return nil
	}
	return l
}

func (l *Log) Error() string {
	msg := ""
	for i, err := range l.errs {
		if i > 0 {
			msg += "\n"
		}
		msg += err.Error()
	}
	return msg
}

func (l *Log) Render(w io.Writer) {
	for _, err := range l.errs {
		Render(w, err)
	}
}
