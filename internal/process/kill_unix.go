//go:build !windows

// Package process terminates the headless browser used for PDF export
// together with the helper processes it spawns.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid.
// Errors are ignored; callers follow up with the launcher's own kill.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
