//go:build !windows

package selector

import "os/exec"

func applyHiddenWindow(cmd *exec.Cmd) {}
