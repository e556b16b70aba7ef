// Package logcfg configures the global logrus logger.
package logcfg

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// RunLoggerConfig sets the log level, the log format and the rotation of the log file.
// An invalid level falls back to info.
func RunLoggerConfig(envLogs, fileName string) {
	logLevel, err := logrus.ParseLevel(envLogs)
	if err != nil {
		logrus.WithError(err).Warn("Unknown log level, using info")
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.SetReportCaller(true)

	logrus.SetFormatter(&logrus.TextFormatter{
		CallerPrettyfier: callerPrettyfier,
	})

	if fileName == "" {
		logrus.SetOutput(os.Stdout)
		return
	}
	mw := io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     30,
	})
	logrus.SetOutput(mw)
}

// callerPrettyfier reports the caller as file.line.function.
func callerPrettyfier(f *runtime.Frame) (function string, file string) {
	_, filename := path.Split(f.File)
	return "", fmt.Sprintf("%s.%d.%s", filename, f.Line, f.Function)
}
