// Package startup starts and stops service dependencies in declaration
// order, retrying the whole sequence with fibonacci backoff.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

type Dependency interface {
	GetName() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Startup struct {
	dependencies []Dependency
	logger       ectologger.Logger
	maxAttempts  int
}

func New(logger ectologger.Logger, maxAttempts int) *Startup {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Startup{logger: logger, maxAttempts: maxAttempts}
}

func (s *Startup) Add(dependency Dependency) {
	s.dependencies = append(s.dependencies, dependency)
}

func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = nil
		for _, dep := range s.dependencies {
			s.logger.WithField("dependency", dep.GetName()).Infof("Starting dependency '%s'", dep.GetName())
			if err := dep.Start(ctx); err != nil {
				s.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", dep.GetName(), attempt)
				lastErr = err
				break
			}
		}
		if lastErr == nil {
			return nil
		}
		if attempt >= s.maxAttempts {
			break
		}

		s.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, s.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", s.maxAttempts, lastErr)
}

// Stop stops dependencies in reverse start order.
func (s *Startup) Stop(ctx context.Context) error {
	for i := len(s.dependencies) - 1; i >= 0; i-- {
		dep := s.dependencies[i]
		s.logger.WithField("dependency", dep.GetName()).Infof("Stopping dependency '%s'", dep.GetName())
		if err := dep.Stop(ctx); err != nil {
			s.logger.WithError(err).Errorf("Failed to stop dependency '%s'", dep.GetName())
			return err
		}
	}
	return nil
}
