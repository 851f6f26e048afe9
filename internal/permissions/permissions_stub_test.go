//go:build !darwin

package permissions

import "testing"

func TestEnsurePermissionsIsNoop(t *testing.T) {
	if err := EnsurePermissions(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
