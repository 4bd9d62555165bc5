package submission

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/classtools/asgn/internal/apperr"
	"github.com/classtools/asgn/internal/assignment"
)

var log = logrus.WithField("category", "submission")

type valueFile struct {
	Value int64 `toml:"value"`
}

// Slot binds an assignment to one student's submission directory. It
// is rebuilt for every use; nothing here is cached, so every call
// reflects filesystem truth.
type Slot struct {
	Spec       *assignment.Spec
	BasePath   string
	Instructor string

	// Owner resolves a file's owning username. Replaceable so the
	// instructor-trust check is testable without real file ownership.
	Owner func(path string) (string, error)
}

func NewSlot(spec *assignment.Spec, basePath, instructor string) *Slot {
	return &Slot{
		Spec:       spec,
		BasePath:   basePath,
		Instructor: instructor,
		Owner:      fileOwner,
	}
}

func (s *Slot) GracePath() string {
	return filepath.Join(s.BasePath, ".grace")
}

func (s *Slot) ExtensionPath() string {
	return filepath.Join(s.BasePath, ".extension")
}

func (s *Slot) FilePaths() []string {
	paths := make([]string, 0, len(s.Spec.FileList))
	for _, name := range s.Spec.FileList {
		paths = append(paths, filepath.Join(s.BasePath, name))
	}
	return paths
}

// Grace reads the slot's grace allotment. A missing or unreadable file
// means no grace; a present but malformed file is an error.
func (s *Slot) Grace() (int64, error) {
	text, err := os.ReadFile(s.GracePath())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("grace file at %s is unreadable, assuming 0: %v", s.GracePath(), err)
		}
		return 0, nil
	}

	var grace valueFile
	if err := toml.Unmarshal(text, &grace); err != nil {
		return 0, apperr.IO("Deserializing grace file", s.GracePath(), err)
	}
	return grace.Value, nil
}

func (s *Slot) SetGrace(value int64) error {
	return writeValueFile(s.GracePath(), value)
}

// Extension reads the slot's instructor-granted extension. The file
// only counts when it is owned by the instructor on disk; anything
// else is a trust violation, never a silent default, so a student
// cannot forge their own extension.
func (s *Slot) Extension() (int64, error) {
	extPath := s.ExtensionPath()

	info, err := os.Stat(extPath)
	if err != nil || info.IsDir() {
		return 0, nil
	}

	owner, err := s.Owner(extPath)
	if err != nil {
		return 0, apperr.IO("Resolving extension file owner", extPath, err)
	}
	if owner != s.Instructor {
		return 0, apperr.NotInstructorOwned(extPath)
	}

	text, err := os.ReadFile(extPath)
	if err != nil {
		return 0, apperr.IO("Reading extension file", extPath, err)
	}
	var ext valueFile
	if err := toml.Unmarshal(text, &ext); err != nil {
		return 0, apperr.IO("Deserializing extension file", extPath, err)
	}
	return ext.Value, nil
}

func (s *Slot) SetExtension(value int64) error {
	return writeValueFile(s.ExtensionPath(), value)
}

func writeValueFile(path string, value int64) error {
	text, err := toml.Marshal(valueFile{Value: value})
	if err != nil {
		return apperr.IO("Serializing value file", path, err)
	}
	if err := os.WriteFile(path, text, 0o644); err != nil {
		return apperr.IO("Writing value file", path, err)
	}
	return nil
}

// Status derives the submission's current state from live file
// metadata: present iff every required file exists as a plain file,
// turned in at the newest mtime among them.
func (s *Slot) Status() (*Status, error) {
	submitted := true
	for _, path := range s.FilePaths() {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			submitted = false
			break
		}
	}

	var turnInTime *time.Time
	if submitted {
		var mtime int64
		for _, path := range s.FilePaths() {
			info, err := os.Stat(path)
			if err != nil {
				return nil, apperr.IO("Inspecting submission file", path, err)
			}
			if modSec := info.ModTime().Unix(); modSec > mtime {
				mtime = modSec
			}
		}
		converted, err := epochToLocal(mtime)
		if err != nil {
			return nil, err
		}
		turnInTime = &converted
	}

	graceDays, err := s.Grace()
	if err != nil {
		return nil, err
	}
	extensionDays, err := s.Extension()
	if err != nil {
		return nil, err
	}

	return &Status{
		TurnInTime:    turnInTime,
		GraceDays:     graceDays,
		ExtensionDays: extensionDays,
	}, nil
}

// epochToLocal converts raw epoch seconds into a local timestamp,
// refusing values no real file could carry instead of clamping them.
func epochToLocal(sec int64) (time.Time, error) {
	if sec < 0 {
		return time.Time{}, apperr.IO("Converting timestamp", "submission files", errInvalidEpoch)
	}
	converted := time.Unix(sec, 0).In(time.Local)
	if converted.Year() > 9999 {
		return time.Time{}, apperr.DateOutOfRange(converted)
	}
	return converted, nil
}
