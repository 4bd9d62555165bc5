package course

import (
	"os"
	"path/filepath"

	"github.com/classtools/asgn/internal/apperr"
	"github.com/classtools/asgn/internal/assignment"
)

// Refresh repairs the course directory tree: every assignment gets a
// directory, every student gets a slot under each assignment, and the
// slots get ACLs granting the student and the graders access. Safety
// across concurrent humans rests entirely on these permissions; the
// tool itself takes no locks.
func (c *Context) Refresh() error {
	if err := ensureDir(c.BasePath, 0o755); err != nil {
		return err
	}

	for _, asgnName := range c.Manifest {
		asgnPath := filepath.Join(c.BasePath, asgnName)
		if err := ensureDir(asgnPath, 0o755); err != nil {
			return err
		}
		if err := ensureDir(filepath.Join(asgnPath, ".info"), 0o755); err != nil {
			return err
		}

		// A fresh manifest entry has no spec yet; write the blank one.
		if !fileExists(filepath.Join(asgnPath, ".info", "info.toml")) {
			if err := assignment.NewDefault(asgnPath).Sync(); err != nil {
				return err
			}
		}

		spec := assignment.NewDefault(asgnPath)
		if entry, ok := c.Catalog[asgnName]; ok && entry.Err == nil {
			spec = entry.Spec
		}
		for _, student := range c.Students {
			if err := c.refreshSlot(spec, student); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Context) refreshSlot(spec *assignment.Spec, student string) error {
	slot := c.Slot(spec, student)
	slotPath := slot.BasePath
	if err := ensureDir(slotPath, 0o700); err != nil {
		return err
	}

	entries := []FaclEntry{
		{User: c.Instructor, Read: true, Write: true, Exe: true},
		{User: student, Read: true, Write: true, Exe: true},
	}
	for _, grader := range c.Graders {
		entries = append(entries, FaclEntry{User: grader, Read: true, Exe: true})
	}

	if err := setFacl(slotPath, false, entries); err != nil {
		return err
	}
	if err := setFacl(slotPath, true, entries); err != nil {
		return err
	}

	if !fileExists(slot.GracePath()) {
		return slot.SetGrace(0)
	}
	return nil
}

func ensureDir(path string, mode os.FileMode) error {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		if err := os.Remove(path); err != nil {
			return apperr.IO("Removing file", path, err)
		}
	}
	if err := os.MkdirAll(path, mode); err != nil {
		return apperr.IO("Creating directory", path, err)
	}
	if err := os.Chmod(path, mode); err != nil {
		return apperr.IO("Setting directory mode", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
