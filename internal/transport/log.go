package transport

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
)

// Describe renders a message as hex followed by its decoded form.
func Describe(msg []byte) string {
	return fmt.Sprintf("% X (%s)", msg, midi.Message(msg).String())
}

// Log is a Transport that only logs. It backs --dry-run.
type Log struct {
	log logrus.FieldLogger
}

// NewLog returns a logging transport.
func NewLog(log logrus.FieldLogger) *Log {
	return &Log{log: log}
}

func (l *Log) Send(msg []byte) error {
	l.log.WithField("msg", Describe(msg)).Info("midi out (dry run)")
	return nil
}

func (l *Log) Close() error { return nil }

// Logged wraps a transport and logs every message at debug level.
type Logged struct {
	next Transport
	log  logrus.FieldLogger
}

// WithLogging wraps next.
func WithLogging(next Transport, log logrus.FieldLogger) *Logged {
	return &Logged{next: next, log: log}
}

func (l *Logged) Send(msg []byte) error {
	err := l.next.Send(msg)
	entry := l.log.WithField("msg", Describe(msg))
	if err != nil {
		entry.WithError(err).Error("midi send failed")
		return err
	}
	entry.Debug("midi out")
	return nil
}

func (l *Logged) Close() error {
	return l.next.Close()
}
