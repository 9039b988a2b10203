// ABOUTME: Routes libav log output through logrus
// ABOUTME: Maps libav log levels onto logrus levels
package ffmpeg

import (
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/sirupsen/logrus"
)

// ForwardLogs sends libav messages to logger. Informational output such as
// the input dump is kept; verbose output needs the logger at debug level.
func ForwardLogs(logger *logrus.Logger) {
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		astiav.SetLogLevel(astiav.LogLevelVerbose)
	} else {
		astiav.SetLogLevel(astiav.LogLevelInfo)
	}

	astiav.SetLogCallback(func(c astiav.Classer, l astiav.LogLevel, fmt, msg string) {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			return
		}
		entry := logger.WithField("component", "libav")
		switch {
		case l <= astiav.LogLevelError:
			entry.Error(msg)
		case l <= astiav.LogLevelWarning:
			entry.Warn(msg)
		case l <= astiav.LogLevelInfo:
			entry.Info(msg)
		default:
			entry.Debug(msg)
		}
	})
}
