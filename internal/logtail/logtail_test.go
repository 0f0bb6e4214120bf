package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"read all (0)", 0, expectedAll},
		{"read all (negative)", -1, expectedAll},
		{"read partial (5)", 5, expectedAll[5:]},
		{"read exactly all (10)", 10, expectedAll},
		{"read more than exists (20)", 20, expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || lines != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", lines, err)
	}
}

func TestParse_ZerologLine(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(&buf).With().Timestamp().Str("component", "timeline").Logger()
	log.Error().
		Str("endpoint", "/get_timeline_events_paginated").
		Int("offset", 20).
		Err(fmt.Errorf("status 500")).
		Msg("timeline page fetch failed")

	e := Parse(strings.TrimSpace(buf.String()))
	if e.Level != zerolog.ErrorLevel {
		t.Fatalf("Level = %v, want error", e.Level)
	}
	if e.Component != "timeline" || e.Message != "timeline page fetch failed" || e.Error != "status 500" {
		t.Fatalf("entry = %+v", e)
	}
	if e.Time.IsZero() {
		t.Fatalf("Time not parsed")
	}
	want := []Field{{"endpoint", "/get_timeline_events_paginated"}, {"offset", "20"}}
	if !reflect.DeepEqual(e.Fields, want) {
		t.Fatalf("Fields = %+v, want %+v", e.Fields, want)
	}

	line := Format(e)
	if !strings.Contains(line, `ERR [timeline] timeline page fetch failed endpoint=/get_timeline_events_paginated offset=20 error="status 500"`) {
		t.Fatalf("Format = %q", line)
	}
}

func TestParse_PlainLine(t *testing.T) {
	e := Parse("not json at all")
	if e.Raw != "not json at all" || e.Level != zerolog.NoLevel {
		t.Fatalf("entry = %+v", e)
	}
	if got := Format(e); got != "not json at all" {
		t.Fatalf("Format = %q", got)
	}
}

func TestFormat(t *testing.T) {
	e := Entry{
		Time:    time.Date(2024, 1, 1, 12, 0, 1, 0, time.Local),
		Level:   zerolog.WarnLevel,
		Message: "ignoring unknown alert type",
		Fields:  []Field{{"alert_type", "X"}, {"camera_id", "7"}},
	}
	want := "12:00:01 WRN ignoring unknown alert type alert_type=X camera_id=7"
	if got := Format(e); got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}

func TestLevelLabel(t *testing.T) {
	tests := map[zerolog.Level]string{
		zerolog.DebugLevel: "DBG",
		zerolog.InfoLevel:  "INF",
		zerolog.WarnLevel:  "WRN",
		zerolog.ErrorLevel: "ERR",
		zerolog.NoLevel:    "???",
	}
	for level, want := range tests {
		if got := LevelLabel(level); got != want {
			t.Fatalf("LevelLabel(%v) = %q, want %q", level, got, want)
		}
	}
}
