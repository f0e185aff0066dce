// Package console adjusts terminal behavior for long-running console
// programs. Platform-specific implementations live in files guarded by
// build tags; everywhere else the operations are no-ops so callers can
// invoke them unconditionally.
package console

// DisableQuickEdit turns off the Windows console QuickEdit mode, which
// otherwise freezes the whole process whenever the user selects text in
// the window. Returns nil on platforms without the concept.
func DisableQuickEdit() error {
	return disableQuickEdit()
}
