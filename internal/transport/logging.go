// SPDX-License-Identifier: MIT
package transport

import (
	applog "audiograph/internal/log"
)

// LoggingTransport implements the Transport interface by writing each event
// to the debug log.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received event. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	applog.Debugf("Transport: event %+v", data)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
