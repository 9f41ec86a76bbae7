// Package media opens article images and external links in the reader's
// desktop applications.
package media

import (
	"fmt"
	"os/exec"
	"runtime"
)

type Launcher struct {
	opener string
}

// NewLauncher picks the platform opener. An explicit opener overrides the
// platform default.
func NewLauncher(opener string) *Launcher {
	if opener == "" {
		opener = defaultOpener()
	}
	return &Launcher{opener: opener}
}

func defaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// Open launches the URL detached so the TUI keeps running.
func (l *Launcher) Open(url string) error {
	if url == "" {
		return fmt.Errorf("nothing to open")
	}
	if l.opener == "" {
		return fmt.Errorf("no application found to open URL")
	}

	cmd := exec.Command(l.opener, url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}

	go func() {
		_ = cmd.Wait()
	}()

	return nil
}
