//go:build windows

package selector

import (
	"os/exec"
	"syscall"
)

func applyHiddenWindow(cmd *exec.Cmd) {
	// Prevents a console window from flashing when launching ffmpeg.
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}
