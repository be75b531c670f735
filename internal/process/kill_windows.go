//go:build windows

// Package process terminates the headless browser used for PDF export
// together with the helper processes it spawns.
package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup kills pid and its child processes with taskkill
// (/F forces, /T walks the tree). Errors are ignored; callers follow up with
// the launcher's own kill.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
