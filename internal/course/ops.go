package course

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/classtools/asgn/internal/apperr"
	"github.com/classtools/asgn/internal/assignment"
	"github.com/classtools/asgn/internal/rules"
	"github.com/classtools/asgn/internal/table"
)

func (c *Context) runner(spec *assignment.Spec) *rules.Runner {
	return rules.NewRunner(spec, c.BasePath, c.Role() < RoleGrader, c.Cfg.MakeCommand)
}

// Submit copies the caller's required files from the current directory
// into their submission slot, runs the on-submit pipeline there, and
// prints the lateness verdict. Pipeline failures are reported, not
// returned: a failed build is a normal outcome of submitting.
func (c *Context) Submit(asgnName string) error {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return err
	}
	if err := c.VerifyActive(spec); err != nil {
		return err
	}

	slot := c.Slot(spec, c.User)

	var problems apperr.Log
	for _, fileName := range spec.FileList {
		srcPath := filepath.Join(c.Cwd, fileName)
		if presence := apperr.AssertFile(srcPath); presence != nil {
			problems.Push(presence)
			continue
		}
		dstPath := filepath.Join(slot.BasePath, fileName)
		if err := copyFile(srcPath, dstPath); err != nil {
			problems.Push(apperr.IO("Copying submission file", srcPath, err))
			continue
		}
		if err := os.Chmod(dstPath, 0o644); err != nil {
			problems.Push(apperr.IO("Setting submission file mode", dstPath, err))
		}
	}
	if err := problems.Err(); err != nil {
		return err
	}

	c.runner(spec).RunSubmitPipeline(slot.BasePath)

	status, err := slot.Status()
	if err != nil {
		return err
	}
	effectiveDue, err := status.EffectiveDue(spec.DueDate)
	if err != nil {
		return err
	}
	fmt.Printf("Assignment '%s': %s\n", spec.Name, status.Versus(effectiveDue))
	return nil
}

// Setup copies the assignment's provided starter files into the
// caller's current directory.
func (c *Context) Setup(asgnName string) error {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return err
	}
	if err := c.VerifyActive(spec); err != nil {
		return err
	}

	setupDir := spec.SetupDir()
	if info, err := os.Stat(setupDir); err != nil || !info.IsDir() {
		return apperr.NoSetup(asgnName)
	}

	return filepath.Walk(setupDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return apperr.IO("Walking setup directory", path, err)
		}
		rel, err := filepath.Rel(setupDir, path)
		if err != nil {
			return apperr.IO("Resolving setup path", path, err)
		}
		dstPath := filepath.Join(c.Cwd, rel)
		if info.IsDir() {
			if rel == "." {
				return nil
			}
			if err := os.MkdirAll(dstPath, 0o755); err != nil {
				return apperr.IO("Creating setup directory", dstPath, err)
			}
			return nil
		}
		if err := copyFile(path, dstPath); err != nil {
			return apperr.IO("Copying setup file", path, err)
		}
		return nil
	})
}

// Summary renders the currently visible assignments with the caller's
// standing on each.
func (c *Context) Summary() (string, error) {
	t := table.New(4)
	if err := t.AddRow("NAME", "DUE DATE", "FILES", "STATUS"); err != nil {
		return "", err
	}

	for _, name := range c.Manifest {
		entry, ok := c.Catalog[name]
		if !ok || entry.Err != nil {
			continue
		}
		spec := entry.Spec
		if !spec.Visible && c.Role() < RoleGrader {
			continue
		}

		status, err := c.Slot(spec, c.User).Status()
		if err != nil {
			return "", err
		}
		effectiveDue, err := status.EffectiveDue(spec.DueDate)
		if err != nil {
			return "", err
		}

		if err := t.AddRow(
			spec.Name,
			formatDate(spec.DueDate),
			joinFiles(spec.FileList),
			status.Versus(effectiveDue),
		); err != nil {
			return "", err
		}
	}
	return t.String(), nil
}

// Details renders one assignment's properties alongside the caller's
// grace and extension standing.
func (c *Context) Details(asgnName string) (string, error) {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return "", err
	}

	status, err := c.Slot(spec, c.User).Status()
	if err != nil {
		return "", err
	}

	t := table.New(2)
	rows := [][2]string{
		{"PROPERTY", "VALUE"},
		{"NAME", spec.Name},
		{"FILES", joinFiles(spec.FileList)},
		{"OPEN DATE", formatDate(spec.OpenDate)},
		{"CLOSE DATE", formatDate(spec.CloseDate)},
		{"DUE DATE", formatDate(spec.DueDate)},
		{"EXTENSION", fmt.Sprintf("%d", status.ExtensionDays)},
		{"GRACE", fmt.Sprintf("%d", status.GraceDays)},
	}
	for _, row := range rows {
		if err := t.AddRow(row[0], row[1]); err != nil {
			return "", err
		}
	}
	return t.String(), nil
}

// CopySubmission rebuilds a clean copy of one student's submission
// under the caller's current directory.
func (c *Context) CopySubmission(asgnName, username string) error {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return err
	}
	if !c.IsMember(username) {
		return apperr.NoSuchMember(username)
	}
	return spec.RetrieveSubmission(filepath.Join(c.Cwd, username), username)
}

// CopyAllSubmissions copies every student's submission, accumulating
// failures instead of stopping at the first.
func (c *Context) CopyAllSubmissions(asgnName string) error {
	var errLog apperr.Log
	for _, student := range c.Students {
		errLog.Push(c.CopySubmission(asgnName, student))
	}
	return errLog.Err()
}

// GradeSubmission retrieves a student's submission into the caller's
// current directory and runs the grading pipeline against it.
func (c *Context) GradeSubmission(asgnName, username string) error {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return err
	}
	if !c.IsMember(username) {
		return apperr.NoSuchMember(username)
	}

	gradeDir := filepath.Join(c.Cwd, username)
	if err := spec.RetrieveSubmission(gradeDir, username); err != nil {
		return err
	}

	runner := c.runner(spec)
	if _, err := runner.RunOnGrade(spec.Build, gradeDir, "Building Assignment", false); err != nil {
		color.New(color.FgYellow, color.Bold).Printf("Grading of '%s' for %s stopped early.\n", asgnName, username)
		return nil
	}
	if !runner.RunGradePipeline(gradeDir) {
		color.New(color.FgYellow, color.Bold).Printf("Grading of '%s' for %s stopped early.\n", asgnName, username)
	}
	return nil
}

// ListSubmissions renders submission standing, optionally narrowed to
// one assignment and/or one student.
func (c *Context) ListSubmissions(asgnFilter, userFilter string) (string, error) {
	t := table.New(3)
	if err := t.AddRow("ASSIGNMENT", "USER", "STATUS"); err != nil {
		return "", err
	}

	for _, name := range c.Manifest {
		if asgnFilter != "" && name != asgnFilter {
			continue
		}
		entry, ok := c.Catalog[name]
		if !ok || entry.Err != nil {
			continue
		}
		for _, student := range c.Students {
			if userFilter != "" && student != userFilter {
				continue
			}
			status, err := c.Slot(entry.Spec, student).Status()
			if err != nil {
				return "", err
			}
			effectiveDue, err := status.EffectiveDue(entry.Spec.DueDate)
			if err != nil {
				return "", err
			}
			if err := t.AddRow(name, student, status.Versus(effectiveDue)); err != nil {
				return "", err
			}
		}
	}
	return t.String(), nil
}

// ListAssignments renders the manifest with each assignment's state.
func (c *Context) ListAssignments() (string, error) {
	t := table.New(4)
	if err := t.AddRow("NAME", "ACTIVE", "VISIBLE", "DUE DATE"); err != nil {
		return "", err
	}
	for _, name := range c.Manifest {
		entry, ok := c.Catalog[name]
		if !ok {
			continue
		}
		if entry.Err != nil {
			if err := t.AddRow(name, "BROKEN", "BROKEN", "BROKEN"); err != nil {
				return "", err
			}
			continue
		}
		spec := entry.Spec
		if err := t.AddRow(
			name,
			fmt.Sprintf("%t", spec.Active),
			fmt.Sprintf("%t", spec.Visible),
			formatDate(spec.DueDate),
		); err != nil {
			return "", err
		}
	}
	return t.String(), nil
}

// PrintCatalogFailures reports every assignment that failed to load.
func (c *Context) PrintCatalogFailures(w io.Writer) {
	for _, name := range c.Manifest {
		entry, ok := c.Catalog[name]
		if ok && entry.Err != nil {
			apperr.Render(w, entry.Err)
		}
	}
}

func formatDate(date *time.Time) string {
	if date == nil {
		return "NONE"
	}
	return date.Format("2006-01-02")
}

func joinFiles(fileList []string) string {
	joined := ""
	for i, name := range fileList {
		if i > 0 {
			joined += "  "
		}
		joined += name
	}
	return joined
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
