package services

import (
	"context"
	"log/slog"
	"time"
)

// Pipeline lets one pass at a time touch the store: imports, bracket
// advances, admin mutations and site renders all queue on it.
type Pipeline struct {
	sem    chan struct{}
	logger *slog.Logger
}

func NewPipeline(logger *slog.Logger) *Pipeline {
	return &Pipeline{sem: make(chan struct{}, 1), logger: logger}
}

// Do waits for the pipeline, then runs fn. It gives up with ctx's error if
// ctx ends first.
func (p *Pipeline) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()

	start := time.Now()
	err := fn(ctx)
	p.logger.Debug("pipeline pass finished",
		slog.String("pass", name),
		slog.Duration("took", time.Since(start)),
		slog.Bool("ok", err == nil),
	)
	return err
}

// TryDo runs fn only if no other pass is running.
func (p *Pipeline) TryDo(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	default:
		return ErrPipelineBusy
	}
	defer func() { <-p.sem }()
	p.logger.Debug("pipeline pass started", slog.String("pass", name))
	return fn(ctx)
}
