// Package orchestrator wires a source enumerator to the translation
// dispatcher and aggregates per-unit outcomes into a run summary.
package orchestrator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/valpere/difftran/internal/dispatch"
	"github.com/valpere/difftran/internal/source"
	"github.com/valpere/difftran/internal/unit"
)

type Config struct {
	// Workers bounds concurrent dispatches. Values below 2 mean strictly
	// sequential processing.
	Workers int
}

// Summary aggregates one run. Per-unit failures live here; they never
// abort the run.
type Summary struct {
	Translated int
	Skipped    int
	Failed     int
	Outcomes   []dispatch.Outcome
}

func (s *Summary) Processed() int {
	return s.Translated + s.Skipped + s.Failed
}

func (s *Summary) add(out dispatch.Outcome) {
	switch out.Status {
	case dispatch.StatusTranslated:
		s.Translated++
	case dispatch.StatusSkipped:
		s.Skipped++
	case dispatch.StatusFailed:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, out)
}

type Orchestrator struct {
	enum   source.Enumerator
	disp   *dispatch.Dispatcher
	config Config
	log    zerolog.Logger
}

func New(enum source.Enumerator, disp *dispatch.Dispatcher, config Config, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{enum: enum, disp: disp, config: config, log: log}
}

// Run drives the enumerator's sequence through the dispatcher. The
// returned error reflects only whether the run itself completed (the
// candidate set was valid); individual unit failures are counted in the
// summary. On a fatal enumeration error the partial summary is returned
// alongside it.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	if o.config.Workers > 1 {
		return o.runConcurrent(ctx)
	}
	return o.runSequential(ctx)
}

func (o *Orchestrator) runSequential(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	err := o.enum.Produce(ctx, func(c *unit.Candidate) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		out := o.disp.Dispatch(ctx, c)
		o.logOutcome(out)
		summary.add(out)
		return nil
	})
	if err != nil {
		return summary, err
	}
	return summary, nil
}

func (o *Orchestrator) runConcurrent(ctx context.Context) (*Summary, error) {
	candidates := make(chan *unit.Candidate)
	outcomes := make(chan dispatch.Outcome, o.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < o.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range candidates {
				outcomes <- o.disp.Dispatch(ctx, c)
			}
		}()
	}

	var produceErr error
	go func() {
		produceErr = o.enum.Produce(ctx, func(c *unit.Candidate) error {
			select {
			case candidates <- c:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(candidates)
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	summary := &Summary{}
	for out := range outcomes {
		o.logOutcome(out)
		summary.add(out)
	}

	// outcomes closes only after the producer goroutine finished, so
	// produceErr is settled here.
	if produceErr != nil {
		return summary, produceErr
	}
	return summary, nil
}

func (o *Orchestrator) logOutcome(out dispatch.Outcome) {
	switch out.Status {
	case dispatch.StatusTranslated:
		o.log.Info().Str("unit", out.Locator).Str("dest", out.Dest).Msg("translated")
	case dispatch.StatusSkipped:
		o.log.Debug().Str("unit", out.Locator).Str("reason", out.Reason.String()).Msg("skipped")
	case dispatch.StatusFailed:
		o.log.Error().Err(out.Err).Str("unit", out.Locator).Msg("failed")
	}
}
