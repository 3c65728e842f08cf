package translator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Chain tries services in configured order and returns the first usable
// result. Each service gets up to maxAttempts tries before the chain
// falls through to the next one; when every service is exhausted the
// joined errors come back to the caller.
type Chain struct {
	services    []Service
	maxAttempts int
	log         zerolog.Logger
}

func NewChain(services []Service, maxAttempts int, log zerolog.Logger) *Chain {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Chain{services: services, maxAttempts: maxAttempts, log: log}
}

// Translate returns the translated text and the name of the service that
// produced it.
func (c *Chain) Translate(ctx context.Context, cfg ServiceConfig, req Request) (string, string, error) {
	if len(c.services) == 0 {
		return "", "", errors.New("no translation services configured")
	}

	var errs []error
	for _, svc := range c.services {
		for attempt := 1; attempt <= c.maxAttempts; attempt++ {
			if ctx.Err() != nil {
				return "", "", ctx.Err()
			}

			text, err := svc.Translate(ctx, cfg, req)
			if err == nil && text != "" {
				return text, svc.Name(), nil
			}
			if err == nil {
				err = errors.New("empty translation")
			}

			c.log.Debug().Err(err).Str("service", svc.Name()).
				Int("attempt", attempt).Msg("translation attempt failed")
			errs = append(errs, fmt.Errorf("%s (attempt %d): %w", svc.Name(), attempt, err))
		}
	}

	return "", "", errors.Join(errs...)
}
