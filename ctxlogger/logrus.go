package ctxlogger

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// LevelOff disables logging entirely.
const LevelOff = "OFF"

const timestampFormat = "2006-01-02 15:04:05,000"

// lineFormatter renders "LEVEL timestamp  message".
type lineFormatter struct{}

func (lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(e.Level.String())
	return []byte(fmt.Sprintf("%-5s %s  %s\n", level, e.Time.Format(timestampFormat), strings.TrimRight(e.Message, "\n"))), nil
}

// ParseLevel accepts DEBUG, INFO, WARNING, WARN, ERROR and CRITICAL in any case.
func ParseLevel(level string) (logrus.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return logrus.DebugLevel, nil
	case "", "INFO":
		return logrus.InfoLevel, nil
	case "WARNING", "WARN":
		return logrus.WarnLevel, nil
	case "ERROR":
		return logrus.ErrorLevel, nil
	case "CRITICAL", "FATAL":
		return logrus.FatalLevel, nil
	}
	return logrus.PanicLevel, xerrors.Errorf("unknown log level %q", level)
}

// New returns a leveled logger writing to w. LevelOff yields the dummy logger.
func New(level string, w io.Writer) (Logger, error) {
	if strings.EqualFold(strings.TrimSpace(level), LevelOff) {
		return NewDummyLogger(), nil
	}
	lv, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lv)
	l.SetFormatter(lineFormatter{})
	return l, nil
}
