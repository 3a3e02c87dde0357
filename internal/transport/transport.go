// SPDX-License-Identifier: MIT
// Package transport holds the optional frame sinks fed by the render loop.
package transport

import (
	"errors"

	"termvis/internal/analysis"
)

var ErrClosed = errors.New("transport closed")

// Transport is a sink for analyzed frames. Send is called from the render
// loop once per frame and must not block; implementations drop data rather
// than stall the caller.
type Transport interface {
	Send(data any) error
	Close() error
}

// Frame is the payload the render loop hands to every sink. It owns its
// slices, so sinks may keep it after Send returns.
type Frame struct {
	Sequence    uint64               `json:"sequence"`
	Timestamp   int64                `json:"timestamp"` // Unix nanoseconds.
	Mode        string               `json:"mode"`
	Sensitivity float64              `json:"sensitivity"`
	Energy      float64              `json:"energy"`
	Beat        bool                 `json:"beat"`
	Bands       []analysis.BandLevel `json:"bands"`
	Spectrum    []float64            `json:"spectrum"`
}

// AsFrame accepts a Frame or *Frame.
func AsFrame(data any) (*Frame, bool) {
	switch f := data.(type) {
	case Frame:
		return &f, true
	case *Frame:
		return f, f != nil
	}
	return nil, false
}

// Multi fans out to several transports. Send and Close visit every member
// and join their errors.
type Multi []Transport

func (m Multi) Send(data any) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

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
