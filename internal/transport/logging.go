// SPDX-License-Identifier: MIT
package transport

import (
	"termvis/internal/log"
)

// LoggingTransport writes a one-line summary of every frame at debug level.
type LoggingTransport struct{}

func NewLoggingTransport() *LoggingTransport {
	log.Infof("Transport: logging frame summaries at debug level")
	return &LoggingTransport{}
}

func (lt *LoggingTransport) Send(data any) error {
	f, ok := AsFrame(data)
	if !ok {
		log.Debugf("Transport: received %T", data)
		return nil
	}
	beat := ""
	if f.Beat {
		beat = " BEAT"
	}
	log.Debugf("Frame %d [%s] energy %.3f sensitivity %.1f bins %d%s",
		f.Sequence, f.Mode, f.Energy, f.Sensitivity, len(f.Spectrum), beat)
	return nil
}

func (lt *LoggingTransport) Close() error {
	log.Debugf("Transport: logging transport closed")
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
