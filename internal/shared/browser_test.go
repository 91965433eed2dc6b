package shared

import "testing"

func TestBrowserCommand(t *testing.T) {
	restore := goos
	t.Cleanup(func() { goos = restore })

	cases := []struct {
		platform string
		want     string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "cmd"},
	}

	for _, tc := range cases {
		t.Run(tc.platform, func(t *testing.T) {
			goos = func() string { return tc.platform }

			cmd, err := browserCommand("https://example.com")
			if err != nil {
				t.Fatalf("browserCommand failed: %v", err)
			}
			if cmd.Args[0] != tc.want {
				t.Errorf("expected %q, got %q", tc.want, cmd.Args[0])
			}
			if got := cmd.Args[len(cmd.Args)-1]; got != "https://example.com" {
				t.Errorf("expected URL as final argument, got %q", got)
			}
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		goos = func() string { return "plan9" }

		if _, err := browserCommand("https://example.com"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
