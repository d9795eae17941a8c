package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

// consumer is one long-running subscription loop.
type consumer interface {
	Run(ctx context.Context) error
}

type flusher interface {
	Flush(ctx context.Context) error
}

type ServiceParams struct {
	Logger       *logger.Logger
	Dependencies map[string]pinger
	Consumers    map[string]consumer
	Flushers     []flusher
}

// Service runs the admin notification and analytics consumers side by side.
// If one consumer stops the others are canceled.
type Service struct {
	logg      *logger.Logger
	deps      map[string]pinger
	consumers map[string]consumer
	flushers  []flusher
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for name, c := range params.Consumers {
		if c == nil {
			return nil, fmt.Errorf("consumer %s is nil", name)
		}
	}
	return &Service{
		logg:      params.Logger,
		deps:      params.Dependencies,
		consumers: params.Consumers,
		flushers:  params.Flushers,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for name, dep := range s.deps {
		if err := dep.Ping(ctx); err != nil {
			s.logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for name, c := range s.consumers {
		wg.Add(1)
		go func(name string, c consumer) {
			defer wg.Done()
			err := c.Run(runCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(s.logg.WithField(runCtx, "consumer", name), "consumer stopped unexpectedly", err)
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
			cancel()
		}(name, c)
	}
	wg.Wait()

	// Buffered analytics rows are written even when the run context is gone.
	for _, f := range s.flushers {
		if err := f.Flush(context.WithoutCancel(ctx)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("flush: %w", err))
		}
	}

	if errs != nil {
		return errs
	}
	return ctx.Err()
}
