// Package telemetry carries session events to best-effort sinks.
package telemetry

import (
	"context"
	"errors"

	"xriepv1/client/internal/telemetry/domain"
)

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}

// Fanout returns an emitter that sends every event to each non-nil emitter and joins their errors.
func Fanout(emitters ...EventEmitter) EventEmitter {
	var live multiEmitter
	for _, e := range emitters {
		if e != nil {
			live = append(live, e)
		}
	}
	return live
}

type multiEmitter []EventEmitter

func (m multiEmitter) Emit(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
