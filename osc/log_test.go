package osc

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelWarn, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ParseLogFormat("xml"); err == nil {
		t.Error("ParseLogFormat(xml) succeeded")
	}
	if f, _ := ParseLogFormat("JSON"); f != LogFormatJSON {
		t.Errorf("ParseLogFormat(JSON) = %v", f)
	}
}

func TestLogComponent(t *testing.T) {
	var buf bytes.Buffer
	original := DefaultLogger
	level := GetLogLevel()
	defer func() {
		SetLogger(original)
		SetLogLevel(level)
	}()

	SetLogLevel(slog.LevelDebug)
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	LogDebug(ComponentChannel, "flushed", "bytes", 20)
	out := buf.String()
	if !strings.Contains(out, "flushed") || !strings.Contains(out, "component=channel") {
		t.Errorf("debug log = %q", out)
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrIllegalIndex, "Bad Index"},
		{errors.Wrap(ErrUnknownProperty, "color"), "Unknown Property"},
		{errors.Wrapf(ErrLockTimeout, "after %v", "1s"), "Lock Error"},
		{ErrDepthExceeded, "Packet Error"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := ErrorText(tt.err); got != tt.want {
			t.Errorf("ErrorText(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
