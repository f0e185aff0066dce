//go:build windows

package console

import (
	"golang.org/x/sys/windows"
)

// Not exported by x/sys/windows; value from wincon.h.
const enableQuickEditMode = 0x0040

func disableQuickEdit() error {
	h, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE)
	if err != nil {
		return err
	}
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return err
	}
	mode &^= enableQuickEditMode
	return windows.SetConsoleMode(h, mode)
}
