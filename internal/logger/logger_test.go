package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestLogger_FieldsAreScoped(t *testing.T) {
	var buf bytes.Buffer
	root := NewWriter(&buf, "json")
	child := root.WithField("ticket_id", "t-1").WithError(errors.New("boom"))

	child.Info("checkout failed")
	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["ticket_id"] != "t-1" || line["error"] != "boom" || line["msg"] != "checkout failed" {
		t.Errorf("unexpected line: %v", line)
	}

	buf.Reset()
	root.Info("plain")
	line = map[string]interface{}{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := line["ticket_id"]; ok {
		t.Error("child fields leaked into parent logger")
	}
}

func TestNew_DefaultsUnknownLevelToInfo(t *testing.T) {
	l, err := New(Config{Level: "chatty", Format: "text"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := l.logger.GetLevel().String(); got != "info" {
		t.Errorf("level = %s, want info", got)
	}
}
