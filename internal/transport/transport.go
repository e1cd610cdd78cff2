// SPDX-License-Identifier: MIT
package transport

import "errors"

// Transport defines a generic interface for publishing batch events.
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(data any) error
	Close() error
}

// Multi fans every event out to a list of transports.
type Multi []Transport

// NewMulti drops nil entries and returns the remaining transports as one.
func NewMulti(ts ...Transport) Multi {
	m := make(Multi, 0, len(ts))
	for _, t := range ts {
		if t != nil {
			m = append(m, t)
		}
	}
	return m
}

// Send delivers data to every transport, even after one fails, and joins
// the errors.
func (m Multi) Send(data any) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport and joins the errors.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Transport = Multi(nil)
