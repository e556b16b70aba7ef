package logcfg

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRunLoggerConfig(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetReportCaller(false)

	RunLoggerConfig("debug", filepath.Join(t.TempDir(), "bot.log"))
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", logrus.GetLevel())
	}

	RunLoggerConfig("shout", "")
	if logrus.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info fallback", logrus.GetLevel())
	}
}

func TestCallerPrettyfier(t *testing.T) {
	fn, file := callerPrettyfier(&runtime.Frame{File: "/src/internal/service/tracker.go", Line: 42, Function: "service.(*Tracker).run"})
	if fn != "" {
		t.Errorf("function = %q, want empty", fn)
	}
	if want := "tracker.go.42.service.(*Tracker).run"; file != want {
		t.Errorf("file = %q, want %q", file, want)
	}
}
