package wm

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// defaultSpawn starts cmd through the shell in its own session and
// returns its pid. The child is reaped in the background.
func (m *Manager) defaultSpawn(cmdline string) (int, error) {
	if cmdline == "" {
		return 0, commandErrorf("nothing to spawn")
	}
	cmd := exec.Command("/bin/sh", "-c", cmdline)
	cmd.Env = os.Environ()
	if m.opts.Display != "" {
		cmd.Env = append(cmd.Env, "DISPLAY="+m.opts.Display)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawning %q: %w", cmdline, err)
	}
	pid := cmd.Process.Pid
	logger := m.log.WithField("pid", pid)
	logger.WithField("cmd", cmdline).Info("spawned")
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.WithError(err).Debug("spawned process exited")
		}
	}()
	return pid, nil
}
