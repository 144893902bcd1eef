package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// DesktopPresenter shows notifications with notify-send on Linux and
// osascript on macOS. Other platforms are silently skipped.
type DesktopPresenter struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) error
}

func NewDesktopPresenter() *DesktopPresenter {
	return &DesktopPresenter{goos: runtime.GOOS, run: runCommand}
}

func (p *DesktopPresenter) Present(ctx context.Context, n Presentation) error {
	title, body := n.Request.Content.Title, n.Request.Content.Body
	if len(n.Actions) > 0 {
		labels := make([]string, 0, len(n.Actions))
		for _, a := range n.Actions {
			labels = append(labels, a.Title)
		}
		body += "\n[" + strings.Join(labels, " / ") + "]"
	}
	switch p.goos {
	case "linux":
		return p.run(ctx, "notify-send", "--app-name=nudge", title, body)
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(body), escapeAppleScript(title))
		return p.run(ctx, "osascript", "-e", script)
	default:
		return nil
	}
}

// Dismiss is a no-op: neither backend can withdraw a shown notification.
func (p *DesktopPresenter) Dismiss(context.Context, string) error {
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
