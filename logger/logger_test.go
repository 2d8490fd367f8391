package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInit(t *testing.T) {
	cases := []struct {
		name  string
		opts  Options
		level logrus.Level
	}{
		{"explicit_level", Options{Level: "error"}, logrus.ErrorLevel},
		{"bad_level_falls_back", Options{Level: "nope"}, logrus.InfoLevel},
		{"debug_flag_wins", Options{Level: "error", Debug: true}, logrus.DebugLevel},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			c.opts.Output = &buf
			Init(c.opts)
			if Log.GetLevel() != c.level {
				t.Fatalf("expected level %v, got %v", c.level, Log.GetLevel())
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Output: &buf})
	Log.WithField("actor", 3).Info("hello")
	if !strings.Contains(buf.String(), `"actor":3`) {
		t.Fatalf("expected json field in output, got %q", buf.String())
	}
	if Debugging() {
		t.Fatalf("debug should be disabled at info level")
	}
}
