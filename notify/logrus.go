package notify

import "github.com/sirupsen/logrus"

// LogrusNotifier writes notifications to a logrus logger. It is the usual sink
// for headless hosts (CLIs, workers) that have no toast surface.
type LogrusNotifier struct {
	log *logrus.Logger
}

func NewLogrusNotifier(log *logrus.Logger) *LogrusNotifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogrusNotifier{log: log}
}

func (n *LogrusNotifier) Notify(title, body string, severity Severity) {
	entry := n.log.WithFields(logrus.Fields{
		"title":    title,
		"severity": string(severity),
	})
	if severity == SeverityDestructive {
		entry.Warn(body)
		return
	}
	entry.Info(body)
}
