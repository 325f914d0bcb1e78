package commands

import (
	"errors"
	"testing"

	"pqchat/internal/domain"
)

func TestRequireUserRejectsUnsafeIDs(t *testing.T) {
	saved := username
	t.Cleanup(func() { username = saved })

	for _, bad := range []string{"..", ".", "../alice", "a/b"} {
		username = bad
		if _, err := requireUser(); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("requireUser(%q) err = %v, want ErrValidation", bad, err)
		}
		if _, err := peerArg(bad); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("peerArg(%q) err = %v, want ErrValidation", bad, err)
		}
	}
	username = "alice"
	if u, err := requireUser(); err != nil || u != "alice" {
		t.Fatalf("requireUser(alice) = %q, %v", u, err)
	}
}
