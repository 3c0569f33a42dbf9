package worker

import "github.com/clubhouselabs/fairway/pkg/logger"

// Option applies a configuration option to the RecomputeWorker.
type Option func(*RecomputeWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *RecomputeWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *RecomputeWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
