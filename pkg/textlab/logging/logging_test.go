package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "json")
	WithComponent(logger, "vectorizer").WithField("vocab", 5).Debug("fitted")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "vectorizer" || entry["msg"] != "fitted" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["vocab"] != 5.0 {
		t.Errorf("vocab = %v, want 5", entry["vocab"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info line written at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn line missing")
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	logger := New(&bytes.Buffer{}, "loud", "text")
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info", logger.GetLevel())
	}
}

func TestDiscard(t *testing.T) {
	entry := Discard()
	if entry == nil {
		t.Fatal("Discard returned nil")
	}
	entry.Info("dropped")
}
