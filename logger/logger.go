package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It is usable before Init is called and only
// reports warnings until then.
var Log = newDefault()

// Options configures Init. Empty fields fall back to LOG_LEVEL / LOG_FORMAT and
// then to "info" / "text".
type Options struct {
	Level  string
	Format string
	Debug  bool
	Output io.Writer
}

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	l.SetOutput(os.Stderr)
	return l
}

// Init configures the global logger. Call once from main.
func Init(opts Options) {
	level := opts.Level
	if level == "" {
		if env, ok := os.LookupEnv("LOG_LEVEL"); ok {
			level = env
		} else {
			level = "info"
		}
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	if opts.Debug {
		parsed = logrus.DebugLevel
	}
	Log.SetLevel(parsed)

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = strings.ToLower(os.Getenv("LOG_FORMAT"))
	}
	if format == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if opts.Output != nil {
		Log.SetOutput(opts.Output)
	} else {
		Log.SetOutput(os.Stdout)
	}
}

// Debugging reports whether debug diagnostics are enabled. Hot paths check this
// before building log fields.
func Debugging() bool {
	return Log.IsLevelEnabled(logrus.DebugLevel)
}
