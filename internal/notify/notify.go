// Package notify provides best-effort desktop notification support.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Send raises a desktop notification: notify-send on Linux, osascript on
// macOS. Callers treat failures as non-fatal.
func Send(title, message string) error {
	if runtime.GOOS == "darwin" {
		return sendOSAScript(title, message)
	}
	return sendNotifySend(title, message)
}

func sendNotifySend(title, message string) error {
	cmd := exec.Command("notify-send", "--app-name=troupe", title, message)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func sendOSAScript(title, message string) error {
	script := fmt.Sprintf(
		`display notification %q with title %q`,
		escapeAppleScript(message), escapeAppleScript(title),
	)
	cmd := exec.Command("osascript", "-e", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
