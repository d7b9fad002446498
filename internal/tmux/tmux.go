// Package tmux wraps the tmux commands troupe needs to treat windows of a
// managed session as workspace slots and panes as launched resources.
package tmux

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// SessionName is the tmux session hosting the slots. Set via
// SetSessionName before use.
var SessionName = "troupe"

// unsafeSessionChars matches characters tmux reserves for target
// resolution (`:` and `.`) plus anything else outside the safe set.
var unsafeSessionChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SetSessionName updates the session name, sanitizing unsafe characters.
func SetSessionName(name string) {
	sanitized := unsafeSessionChars.ReplaceAllString(name, "_")
	if sanitized == "" {
		sanitized = "troupe"
	}
	SessionName = sanitized
}

// Window is one window of the managed session: a workspace slot.
type Window struct {
	Index int
	Name  string
}

// SessionExists checks whether the troupe session exists.
func SessionExists() bool {
	err := exec.Command("tmux", "has-session", "-t", SessionName).Run()
	return err == nil
}

// CreateSession creates the troupe session with one initial window.
func CreateSession(windowName string) error {
	return run("new-session", "-d", "-s", SessionName, "-n", windowName)
}

// KillSession destroys the troupe session.
func KillSession() error {
	return run("kill-session", "-t", SessionName)
}

// ListWindows returns the session's windows in index order.
func ListWindows() ([]Window, error) {
	out, err := output("list-windows", "-t", SessionName, "-F", "#{window_index}\t#{window_name}")
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	var windows []Window
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 2)
		idx, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("parse window index %q: %w", parts[0], err)
		}
		w := Window{Index: idx}
		if len(parts) == 2 {
			w.Name = parts[1]
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// ActiveWindowIndex returns the index of the session's active window.
func ActiveWindowIndex() (int, error) {
	out, err := output("display-message", "-t", SessionName, "-p", "#{window_index}")
	if err != nil {
		return 0, fmt.Errorf("active window: %w", err)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parse active window index %q: %w", out, err)
	}
	return idx, nil
}

// CreateNamedWindow appends a window with the given name and returns its
// assigned index.
func CreateNamedWindow(name string) (int, error) {
	out, err := output("new-window", "-d", "-t", SessionName, "-n", name, "-P", "-F", "#{window_index}")
	if err != nil {
		return 0, fmt.Errorf("create window %q: %w", name, err)
	}
	idx, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parse created window index %q: %w", out, err)
	}
	return idx, nil
}

// EnsureWindow creates a window at an explicit index if none exists there.
func EnsureWindow(index int, name string) error {
	windows, err := ListWindows()
	if err != nil {
		return err
	}
	for _, w := range windows {
		if w.Index == index {
			return nil
		}
	}
	args := []string{"new-window", "-d", "-t", fmt.Sprintf("%s:%d", SessionName, index)}
	if name != "" {
		args = append(args, "-n", name)
	}
	return run(args...)
}

// SpawnOptions control how a command is launched into a window.
type SpawnOptions struct {
	WorkingDir string
	Env        map[string]string
	// Reuse sends the command to an idle shell pane in the window instead
	// of splitting a new pane, when one exists.
	Reuse bool
}

// SpawnInWindow launches a command as a pane of the given window and
// returns the pane's shell pid and pane id. The call is fire-and-forget:
// it does not wait for the command to become visible or healthy.
func SpawnInWindow(index int, command string, opts SpawnOptions) (int, string, error) {
	target := fmt.Sprintf("%s:%d", SessionName, index)

	if opts.Reuse {
		if paneID, pid, ok := findIdleShellPane(target); ok {
			if err := run("send-keys", "-t", paneID, command, "Enter"); err != nil {
				return 0, "", fmt.Errorf("send command to %s: %w", paneID, err)
			}
			return pid, paneID, nil
		}
	}

	args := []string{"split-window", "-d", "-t", target, "-P", "-F", "#{pane_id}\t#{pane_pid}"}
	if opts.WorkingDir != "" {
		args = append(args, "-c", opts.WorkingDir)
	}
	for k, v := range opts.Env {
		args = append(args, "-e", k+"="+v)
	}
	args = append(args, command)

	out, err := output(args...)
	if err != nil {
		return 0, "", fmt.Errorf("spawn in %s: %w", target, err)
	}
	parts := strings.SplitN(strings.TrimSpace(out), "\t", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("unexpected split-window output %q", out)
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", fmt.Errorf("parse pane pid %q: %w", parts[1], err)
	}
	return pid, parts[0], nil
}

// ListPanePIDs returns pane id → shell pid across all session windows.
func ListPanePIDs() (map[string]int, error) {
	out, err := output("list-panes", "-s", "-t", SessionName, "-F", "#{pane_id}\t#{pane_pid}")
	if err != nil {
		return nil, fmt.Errorf("list panes: %w", err)
	}
	pids := make(map[string]int)
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		pid, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		pids[parts[0]] = pid
	}
	return pids, nil
}

// shellCommands is the canonical set of known shell command names, used to
// detect whether a pane is idle at a prompt rather than running an
// application.
var shellCommands = map[string]bool{
	"bash": true, "zsh": true, "fish": true,
	"sh": true, "dash": true, "tcsh": true, "csh": true,
}

// findIdleShellPane returns the first pane of the window whose current
// command is a plain shell.
func findIdleShellPane(windowTarget string) (string, int, bool) {
	out, err := output("list-panes", "-t", windowTarget, "-F", "#{pane_id}\t#{pane_pid}\t#{pane_current_command}")
	if err != nil {
		return "", 0, false
	}
	for _, line := range splitLines(out) {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 || !shellCommands[parts[2]] {
			continue
		}
		pid, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		return parts[0], pid, true
	}
	return "", 0, false
}

func splitLines(out string) []string {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func run(args ...string) error {
	cmd := exec.Command("tmux", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tmux %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

func output(args ...string) (string, error) {
	cmd := exec.Command("tmux", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
