package course

import (
	"path/filepath"
	"testing"

	"github.com/classtools/asgn/internal/apperr"
)

func TestFaclEntryRendering(t *testing.T) {
	cases := []struct {
		entry FaclEntry
		want  string
	}{
		{FaclEntry{User: "alice", Read: true, Write: true, Exe: true}, "alice:rwx"},
		{FaclEntry{User: "gary", Read: true, Exe: true}, "gary:rx"},
		{FaclEntry{User: "bob"}, "bob:"},
	}
	for _, tc := range cases {
		if got := tc.entry.String(); got != tc.want {
			t.Fatalf("got %q, want %q", got, tc.want)
		}
	}
}

func TestSetFaclNoEntriesIsANoop(t *testing.T) {
	if err := setFacl(filepath.Join(t.TempDir(), "absent"), false, nil); err != nil {
		t.Fatalf("no entries must not touch the path: %v", err)
	}
}

// Whether setfacl is absent from the host or rejects the path, the
// failure must surface as an advice-carrying error.
func TestSetFaclFailureIsTyped(t *testing.T) {
	entries := []FaclEntry{{User: "alice", Read: true}}
	err := setFacl(filepath.Join(t.TempDir(), "absent"), false, entries)
	if err == nil {
		t.Fatalf("expected failure for a nonexistent path")
	}
	if !apperr.IsKind(err, apperr.KindGeneric) {
		t.Fatalf("expected a typed error, got %v", err)
	}
}
