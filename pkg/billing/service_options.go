package billing

import (
	"log/slog"
	"time"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithLogger sets the structured logger. Nil loggers are ignored so the
// service keeps its discard default.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithEventDeduper enables webhook event deduplication.
// Purely an optimization: handlers stay idempotent regardless.
func WithEventDeduper(d EventDeduper) ServiceOption {
	return func(s *service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}
