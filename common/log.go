// Package common carries the plumbing shared by every namecored
// package: logging, error wrapping, and OS signal handling.
package common

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger every package writes to. Sub-loggers
// scoped to a single package or component come from ForModule.
var Log = NewLogger()

func init() {
	logrus.SetReportCaller(true)
	Log.SetLevel(logrus.InfoLevel)
}

func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.TraceLevel)
	log.SetFormatter(&nameLogFormatter{})
	return log
}

// ForModule returns a logging entry tagged with module, so log lines
// from the mempool, the block processor, and the RPC surface can be
// told apart without separate logger instances.
func ForModule(module string) *logrus.Entry {
	return Log.WithField("module", module)
}

// nameLogFormatter renders "<timestamp> [<level>] <module>: <message>"
// rather than logrus's default key=value layout, matching the plain
// text namecored's log lines already appear as everywhere else.
type nameLogFormatter struct{}

func (f *nameLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	timestamp := entry.Time.Format("2006-01-02 15:04:05")
	b.WriteString(fmt.Sprintf("%s ", timestamp))
	b.WriteString(fmt.Sprintf("[%s] ", entry.Level.String()))
	moduleName, ok := entry.Data["module"].(string)
	if !ok {
		moduleName = "default"
	}
	b.WriteString(fmt.Sprintf("%s: ", moduleName))
	b.WriteString(entry.Message)
	b.WriteByte('\n')

	return b.Bytes(), nil
}

