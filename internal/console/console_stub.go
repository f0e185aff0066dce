//go:build !windows

package console

func disableQuickEdit() error { return nil }
