package course

import (
	"time"

	"github.com/classtools/asgn/internal/assignment"
)

// DateField names which of an assignment's schedule dates an operation
// touches.
type DateField int

const (
	DateDue DateField = iota
	DateOpen
	DateClose
)

func (c *Context) AddStudents(usernames []string) error {
	if err := c.ModifySynced(func(ctx *Context) {
		for _, username := range usernames {
			if !contains(ctx.Students, username) {
				ctx.Students = append(ctx.Students, username)
			}
		}
	}); err != nil {
		return err
	}
	return c.Refresh()
}

func (c *Context) RemoveStudents(usernames []string) error {
	return c.ModifySynced(func(ctx *Context) {
		ctx.Students = without(ctx.Students, usernames)
	})
}

func (c *Context) AddGraders(usernames []string) error {
	if err := c.ModifySynced(func(ctx *Context) {
		for _, username := range usernames {
			if !contains(ctx.Graders, username) {
				ctx.Graders = append(ctx.Graders, username)
			}
		}
	}); err != nil {
		return err
	}
	return c.Refresh()
}

func (c *Context) RemoveGraders(usernames []string) error {
	return c.ModifySynced(func(ctx *Context) {
		ctx.Graders = without(ctx.Graders, usernames)
	})
}

func (c *Context) AddAssignments(asgnNames []string) error {
	if err := c.ModifySynced(func(ctx *Context) {
		for _, name := range asgnNames {
			if !contains(ctx.Manifest, name) {
				ctx.Manifest = append(ctx.Manifest, name)
			}
		}
	}); err != nil {
		return err
	}
	if err := c.Refresh(); err != nil {
		return err
	}
	c.PopulateCatalog()
	return nil
}

func (c *Context) RemoveAssignments(asgnNames []string) error {
	if err := c.ModifySynced(func(ctx *Context) {
		ctx.Manifest = without(ctx.Manifest, asgnNames)
	}); err != nil {
		return err
	}
	c.PopulateCatalog()
	return nil
}

// SetDate parses and stores one of an assignment's schedule dates.
func (c *Context) SetDate(asgnName string, field DateField, date string) error {
	parsed, err := assignment.ParseDate(date)
	if err != nil {
		return err
	}
	return c.modifySpec(asgnName, func(spec *assignment.Spec) {
		setDateField(spec, field, &parsed)
	})
}

func (c *Context) UnsetDate(asgnName string, field DateField) error {
	return c.modifySpec(asgnName, func(spec *assignment.Spec) {
		setDateField(spec, field, nil)
	})
}

func setDateField(spec *assignment.Spec, field DateField, date *time.Time) {
	switch field {
	case DateDue:
		spec.DueDate = date
	case DateOpen:
		spec.OpenDate = date
	case DateClose:
		spec.CloseDate = date
	}
}

func (c *Context) SetActive(asgnName string, active bool) error {
	return c.modifySpec(asgnName, func(spec *assignment.Spec) {
		spec.Active = active
	})
}

func (c *Context) SetVisible(asgnName string, visible bool) error {
	return c.modifySpec(asgnName, func(spec *assignment.Spec) {
		spec.Visible = visible
	})
}

// Extend grants a per-student day extension. The written file carries
// the instructor's ownership on disk, which is what later reads trust.
func (c *Context) Extend(asgnName, username string, days int64) error {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return err
	}
	return c.Slot(spec, username).SetExtension(days)
}

func (c *Context) SetGraceTotal(total int64) error {
	return c.ModifySynced(func(ctx *Context) {
		ctx.GraceTotal = &total
	})
}

func (c *Context) SetGraceLimit(limit int64) error {
	return c.ModifySynced(func(ctx *Context) {
		ctx.GraceLimit = &limit
	})
}

func (c *Context) modifySpec(asgnName string, mutate func(*assignment.Spec)) error {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return err
	}
	return spec.ModifySynced(mutate)
}

func without(list, removals []string) []string {
	kept := list[:0]
	for _, entry := range list {
		if !contains(removals, entry) {
			kept = append(kept, entry)
		}
	}
	return kept
}
