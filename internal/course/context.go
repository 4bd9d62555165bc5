package course

import (
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/classtools/asgn/internal/apperr"
	"github.com/classtools/asgn/internal/assignment"
	"github.com/classtools/asgn/internal/config"
	"github.com/classtools/asgn/internal/submission"
)

var (
	log      = logrus.WithField("category", "course")
	validate = validator.New()
)

type Role int

const (
	RoleOther Role = iota
	RoleStudent
	RoleGrader
	RoleInstructor
)

func (r Role) String() string {
	switch r {
	case RoleInstructor:
		return "instructor"
	case RoleGrader:
		return "grader"
	case RoleStudent:
		return "student"
	default:
		return "other"
	}
}

type courseFile struct {
	Manifest   []string `toml:"manifest"`
	Graders    []string `toml:"graders"`
	Students   []string `toml:"students"`
	GraceTotal *int64   `toml:"grace_total,omitempty" validate:"omitempty,gte=0"`
	GraceLimit *int64   `toml:"grace_limit,omitempty" validate:"omitempty,gte=0"`
}

// CatalogEntry remembers either a loaded assignment spec or why it
// failed to load, so one broken spec never hides the rest.
type CatalogEntry struct {
	Spec *assignment.Spec
	Err  error
}

// Context is the read-mostly course state threaded through every
// operation: who is asking, where the course lives, who its members
// are, and the parsed assignment catalog.
type Context struct {
	Course     string
	Instructor string
	BasePath   string

	User string
	Time time.Time
	Cwd  string

	Manifest   []string
	Graders    []string
	Students   []string
	GraceTotal *int64
	GraceLimit *int64

	Catalog map[string]*CatalogEntry

	Cfg config.Config
}

// Deduce assembles the context for one invocation: identity from the
// process owner, the base path from the faculty layout, membership and
// budgets from .course.toml, and the catalog from every manifest entry.
func Deduce(cfg config.Config, instructor, courseName string) (*Context, error) {
	current, err := user.Current()
	if err != nil {
		return nil, apperr.InvalidUser("<unknown>")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, apperr.Custom(
			"Failed to access current working directory.",
			"Please change to a valid directory.")
	}

	basePath := filepath.Join(cfg.FacultyRoot, instructor, "submit", courseName)
	if info, err := os.Stat(basePath); err != nil || !info.IsDir() {
		return nil, apperr.NoBaseDir(basePath)
	}

	ctx := &Context{
		Course:     courseName,
		Instructor: instructor,
		BasePath:   basePath,
		User:       current.Username,
		Time:       time.Now(),
		Cwd:        cwd,
		Cfg:        cfg,
	}
	if err := ctx.loadCourseFile(); err != nil {
		return nil, err
	}
	ctx.PopulateCatalog()
	return ctx, nil
}

func (c *Context) courseFilePath() string {
	return filepath.Join(c.BasePath, ".course.toml")
}

func (c *Context) loadCourseFile() error {
	text, err := os.ReadFile(c.courseFilePath())
	if err != nil {
		return apperr.SpecIO(c.courseFilePath(), err)
	}

	var file courseFile
	if err := toml.Unmarshal(text, &file); err != nil {
		return apperr.BadSpec(c.courseFilePath(), err.Error())
	}
	if err := validate.Struct(&file); err != nil {
		return apperr.BadSpec(c.courseFilePath(), err.Error())
	}

	c.Manifest = file.Manifest
	c.Graders = file.Graders
	c.Students = file.Students
	c.GraceTotal = file.GraceTotal
	c.GraceLimit = file.GraceLimit
	return nil
}

// Sync writes the course state back to .course.toml.
func (c *Context) Sync() error {
	file := courseFile{
		Manifest:   c.Manifest,
		Graders:    c.Graders,
		Students:   c.Students,
		GraceTotal: c.GraceTotal,
		GraceLimit: c.GraceLimit,
	}
	text, err := toml.Marshal(file)
	if err != nil {
		return apperr.IO("Serializing course file", c.courseFilePath(), err)
	}
	if err := os.WriteFile(c.courseFilePath(), text, 0o644); err != nil {
		return apperr.IO("Writing course file", c.courseFilePath(), err)
	}
	return nil
}

// ModifySynced applies a mutation and immediately persists it.
func (c *Context) ModifySynced(mutate func(*Context)) error {
	mutate(c)
	return c.Sync()
}

// PopulateCatalog (re)loads every manifest assignment, remembering
// load failures per entry.
func (c *Context) PopulateCatalog() {
	c.Catalog = make(map[string]*CatalogEntry, len(c.Manifest))
	for _, name := range c.Manifest {
		spec, err := assignment.Load(filepath.Join(c.BasePath, name))
		c.Catalog[name] = &CatalogEntry{Spec: spec, Err: err}
		if err != nil {
			log.Warnf("assignment %s failed to load: %v", name, err)
		}
	}
}

// SpecOf resolves a usable assignment spec by name.
func (c *Context) SpecOf(name string) (*assignment.Spec, error) {
	entry, ok := c.Catalog[name]
	if !ok {
		return nil, apperr.InvalidAssignment(name)
	}
	if entry.Err != nil {
		return nil, entry.Err
	}
	return entry.Spec, nil
}

// Slot binds an assignment to one member's submission directory.
func (c *Context) Slot(spec *assignment.Spec, username string) *submission.Slot {
	return submission.NewSlot(spec,
		filepath.Join(c.BasePath, spec.Name, username),
		c.Instructor)
}

func (c *Context) Role() Role {
	switch {
	case c.User == c.Instructor:
		return RoleInstructor
	case contains(c.Graders, c.User):
		return RoleGrader
	case contains(c.Students, c.User):
		return RoleStudent
	default:
		return RoleOther
	}
}

// Require refuses callers below the given role.
func (c *Context) Require(role Role) error {
	if c.Role() < role {
		return apperr.Unauthorized()
	}
	return nil
}

func (c *Context) IsMember(username string) bool {
	return contains(c.Students, username) || contains(c.Graders, username)
}

// VerifyActive gates interaction on the assignment being enabled and
// inside its open/close window.
func (c *Context) VerifyActive(spec *assignment.Spec) error {
	if !spec.Active {
		return apperr.New(apperr.KindInactive,
			"Interaction with this assignment is currently disabled.",
			apperr.MaybeContactInstructor)
	}
	if spec.BeforeOpen(c.Time) {
		return apperr.New(apperr.KindInactive,
			"Assignments cannot be interacted with before their open date.",
			apperr.MaybeContactInstructor)
	}
	if spec.AfterClose(c.Time) {
		return apperr.New(apperr.KindInactive,
			"Assignments cannot be interacted with after their close date.",
			apperr.MaybeContactInstructor)
	}
	return nil
}

func contains(list []string, item string) bool {
	for _, entry := range list {
		if entry == item {
			return true
		}
	}
	return false
}
