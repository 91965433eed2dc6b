package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// goos is swappable in tests.
var goos = func() string { return runtime.GOOS }

// browserCommand maps a platform to the command that hands a URL to the
// default browser.
func browserCommand(url string) (*exec.Cmd, error) {
	switch os := goos(); os {
	case "darwin":
		return exec.Command("open", url), nil
	case "linux":
		return exec.Command("xdg-open", url), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", os)
	}
}

// OpenBrowser opens the default system browser to the given URL. The login
// flow uses it to send the user to the Spotify consent page; callers fall
// back to printing the URL when it fails.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(url)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
