package store

import (
	"printprof/internal/platform/logger"
)

// Option adjusts a Store while Open assembles it
type Option func(*Store) error

// WithLogger replaces the logger handed to subclients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}
