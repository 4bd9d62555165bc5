package course

import (
	"os/exec"
	"strings"

	"github.com/classtools/asgn/internal/apperr"
)

// FaclEntry is one POSIX ACL grant, rendered in setfacl's
// user:perms form.
type FaclEntry struct {
	User  string
	Read  bool
	Write bool
	Exe   bool
}

func (e FaclEntry) String() string {
	perms := ""
	if e.Read {
		perms += "r"
	}
	if e.Write {
		perms += "w"
	}
	if e.Exe {
		perms += "x"
	}
	return e.User + ":" + perms
}

// setFacl applies ACL entries to a path via the setfacl tool. With
// dflt set the entries become default entries inherited by new files.
func setFacl(path string, dflt bool, entries []FaclEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rendered := make([]string, 0, len(entries))
	for _, entry := range entries {
		rendered = append(rendered, entry.String())
	}

	args := []string{}
	if dflt {
		args = append(args, "-d")
	}
	args = append(args, "-m", strings.Join(rendered, ","), path)

	cmd := exec.Command("setfacl", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// No output means the tool itself could not run, as opposed
		// to running and rejecting the request.
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return apperr.Command("setfacl", err)
		}
		return apperr.Subprocess("setfacl", msg)
	}
	return nil
}
