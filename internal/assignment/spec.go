package assignment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/classtools/asgn/internal/apperr"
)

var validate = validator.New()

// Spec is one assignment: its identity, schedule, required files, and
// the four rule pipelines. It is read from and written back to
// <assignment>/.info/info.toml, and is only usable when its name matches
// the directory it was loaded from.
type Spec struct {
	Name      string
	Active    bool
	Visible   bool
	DueDate   *time.Time
	OpenDate  *time.Time
	CloseDate *time.Time
	FileList  []string

	Build *Ruleset
	Check *Ruleset
	Score *Ruleset
	Grade *Ruleset

	Path string
}

type specFile struct {
	Name      string          `toml:"name" validate:"required"`
	Active    bool            `toml:"active"`
	Visible   bool            `toml:"visible"`
	DueDate   *toml.LocalDate `toml:"due_date,omitempty"`
	OpenDate  *toml.LocalDate `toml:"open_date,omitempty"`
	CloseDate *toml.LocalDate `toml:"close_date,omitempty"`
	FileList  []string        `toml:"file_list"`

	Build *Ruleset `toml:"build,omitempty" validate:"omitempty"`
	Check *Ruleset `toml:"check,omitempty" validate:"omitempty"`
	Score *Ruleset `toml:"score,omitempty" validate:"omitempty"`
	Grade *Ruleset `toml:"grade,omitempty" validate:"omitempty"`
}

// Dates are stored day-granular; a deadline means the end of that day
// in the local zone.
func DateFromLocal(d toml.LocalDate) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 23, 59, 59, 0, time.Local)
}

func DateToLocal(t time.Time) toml.LocalDate {
	return toml.LocalDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// ParseDate turns a yyyy-mm-dd argument into the end-of-day deadline it
// names.
func ParseDate(date string) (time.Time, error) {
	var local toml.LocalDate
	if err := local.UnmarshalText([]byte(date)); err != nil {
		return time.Time{}, apperr.InvalidDate(date)
	}
	return DateFromLocal(local), nil
}

func optionalDate(d *toml.LocalDate) *time.Time {
	if d == nil {
		return nil
	}
	converted := DateFromLocal(*d)
	return &converted
}

func optionalLocal(t *time.Time) *toml.LocalDate {
	if t == nil {
		return nil
	}
	converted := DateToLocal(*t)
	return &converted
}

func (s *Spec) InfoDir() string {
	return filepath.Join(s.Path, ".info")
}

func (s *Spec) InfoPath() string {
	return filepath.Join(s.InfoDir(), "info.toml")
}

func (s *Spec) MakefilePath() string {
	return filepath.Join(s.InfoDir(), "Makefile")
}

func (s *Spec) SetupDir() string {
	return filepath.Join(s.InfoDir(), "setup")
}

func (s *Spec) ScorePath() string {
	return filepath.Join(s.InfoDir(), "score.toml")
}

// NewDefault builds the blank spec written when an assignment is first
// added to the manifest.
func NewDefault(path string) *Spec {
	name := filepath.Base(path)
	return &Spec{
		Name:     name,
		FileList: []string{name + ".cpp"},
		Path:     path,
	}
}

// Load reads and checks <path>/.info/info.toml.
func Load(path string) (*Spec, error) {
	infoPath := filepath.Join(path, ".info", "info.toml")

	text, err := os.ReadFile(infoPath)
	if err != nil {
		return nil, apperr.SpecIO(infoPath, err)
	}

	var file specFile
	if err := toml.Unmarshal(text, &file); err != nil {
		return nil, apperr.BadSpec(infoPath, err.Error())
	}
	if err := validate.Struct(&file); err != nil {
		return nil, apperr.BadSpec(infoPath, err.Error())
	}

	spec := &Spec{
		Name:      file.Name,
		Active:    file.Active,
		Visible:   file.Visible,
		DueDate:   optionalDate(file.DueDate),
		OpenDate:  optionalDate(file.OpenDate),
		CloseDate: optionalDate(file.CloseDate),
		FileList:  file.FileList,
		Build:     file.Build,
		Check:     file.Check,
		Score:     file.Score,
		Grade:     file.Grade,
		Path:      path,
	}

	if filepath.Base(path) != spec.Name {
		return nil, apperr.BadSpec(infoPath, "Name field does not match assignment directory name.")
	}
	return spec, nil
}

// Sync writes the spec back to its info.toml.
func (s *Spec) Sync() error {
	file := specFile{
		Name:      s.Name,
		Active:    s.Active,
		Visible:   s.Visible,
		DueDate:   optionalLocal(s.DueDate),
		OpenDate:  optionalLocal(s.OpenDate),
		CloseDate: optionalLocal(s.CloseDate),
		FileList:  s.FileList,
		Build:     s.Build,
		Check:     s.Check,
		Score:     s.Score,
		Grade:     s.Grade,
	}

	text, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to serialize assignment spec: %w", err)
	}
	if err := os.MkdirAll(s.InfoDir(), 0o755); err != nil {
		return apperr.IO("Creating assignment info directory", s.InfoDir(), err)
	}
	if err := os.WriteFile(s.InfoPath(), text, 0o644); err != nil {
		return apperr.IO("Writing assignment spec", s.InfoPath(), err)
	}
	return nil
}

// ModifySynced applies a mutation and immediately persists it.
func (s *Spec) ModifySynced(mutate func(*Spec)) error {
	mutate(s)
	return s.Sync()
}

func (s *Spec) BeforeOpen(now time.Time) bool {
	if s.OpenDate == nil {
		return false
	}
	return now.AddDate(0, 0, 1).Before(*s.OpenDate)
}

func (s *Spec) AfterClose(now time.Time) bool {
	if s.CloseDate == nil {
		return false
	}
	return now.After(*s.CloseDate)
}

// RetrieveSubmission rebuilds a clean copy of a student's submitted
// files under dstDir, replacing whatever was there.
func (s *Spec) RetrieveSubmission(dstDir, username string) error {
	subPath := filepath.Join(s.Path, username)

	if info, err := os.Stat(dstDir); err == nil {
		if info.IsDir() {
			if err := os.RemoveAll(dstDir); err != nil {
				return apperr.IO("Removing directory", dstDir, err)
			}
		} else {
			if err := os.Remove(dstDir); err != nil {
				return apperr.IO("Removing file", dstDir, err)
			}
		}
	}
	if err := os.Mkdir(dstDir, 0o755); err != nil {
		return apperr.IO("Creating directory", dstDir, err)
	}

	for _, fileName := range s.FileList {
		srcPath := filepath.Join(subPath, fileName)
		dstPath := filepath.Join(dstDir, fileName)

		info, err := os.Stat(srcPath)
		if err != nil {
			return apperr.Custom(
				fmt.Sprintf("Could not copy file %s to %s.", srcPath, dstPath),
				"File does not exist in the submission directory.")
		}
		if info.IsDir() {
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return apperr.IO("Copying submission file", srcPath, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
