package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestGenerateID(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	if first == "" || second == "" {
		t.Fatal("expected non-empty ids")
	}
	if first == second {
		t.Error("expected unique ids")
	}
	if len(strings.Split(first, "-")) != 5 {
		t.Errorf("expected a uuid, got %q", first)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]string{"key": "value"}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(compact) != `{"key":"value"}` {
		t.Errorf("unexpected compact output: %s", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if !strings.Contains(string(pretty), "\n  \"key\": \"value\"") {
		t.Errorf("unexpected pretty output: %s", pretty)
	}
}

func TestLogger(t *testing.T) {
	t.Run("writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output, got %q", buf.String())
		}
	})

	t.Run("child loggers carry key-value context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "component") {
			t.Errorf("expected contextual fields, got %q", buf.String())
		}
	})

	t.Run("level filters lower severities", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.ErrorLevel)
		logger.Info("quiet")

		if buf.Len() != 0 {
			t.Errorf("expected no output below the level, got %q", buf.String())
		}
	})
}
