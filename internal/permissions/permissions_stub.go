//go:build !darwin

package permissions

// EnsurePermissions is a no-op on non-macOS platforms; PulseAudio monitors
// and WASAPI loopback devices need no prompt.
func EnsurePermissions() error {
	return nil
}
