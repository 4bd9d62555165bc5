package course

import (
	"github.com/classtools/asgn/internal/apperr"
)

// GraceSpent recomputes a member's course-wide grace usage by summing
// the grace recorded in every assignment's slot. It is derived live on
// every call, never cached, so it always reflects the files on disk.
func (c *Context) GraceSpent(username string) (int64, error) {
	var spent int64
	for _, name := range c.Manifest {
		entry, ok := c.Catalog[name]
		if !ok || entry.Err != nil {
			continue
		}
		grace, err := c.Slot(entry.Spec, username).Grace()
		if err != nil {
			return 0, err
		}
		spent += grace
	}
	return spent, nil
}

// AwardGrace validates a grace request against the course budget and
// persists it. Every rejection happens before anything is written.
func (c *Context) AwardGrace(asgnName, username string, amount int64) error {
	spec, err := c.SpecOf(asgnName)
	if err != nil {
		return err
	}
	if !c.IsMember(username) {
		return apperr.NoSuchMember(username)
	}

	if c.GraceTotal == nil {
		return apperr.GraceNotInCourse()
	}
	if c.GraceLimit != nil && amount > *c.GraceLimit {
		return apperr.GraceLimit()
	}

	slot := c.Slot(spec, username)
	current, err := slot.Grace()
	if err != nil {
		return err
	}
	spent, err := c.GraceSpent(username)
	if err != nil {
		return err
	}
	if spent-current+amount > *c.GraceTotal {
		return apperr.GraceInsufficient()
	}

	return slot.SetGrace(amount)
}
