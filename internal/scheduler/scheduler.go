package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

type State int

const (
	StatePolling State = iota
	StateFetching
	StateDetecting
	StateDispatching
	StateIdle
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateFetching:
		return "fetching"
	case StateDetecting:
		return "detecting"
	case StateDispatching:
		return "dispatching"
	case StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// BatchFetcher runs the fetch and detect stages of a cycle.
type BatchFetcher interface {
	Fetch(ctx context.Context) ([]model.Batch, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, batches []model.Batch)
}

// Scheduler owns the poll loop. A cycle runs to completion before the next one starts;
// the loop only sleeps when a cycle found nothing to deliver.
type Scheduler struct {
	fetcher    BatchFetcher
	dispatcher Dispatcher
	idle       time.Duration
	logger     *slog.Logger
}

func New(fetcher BatchFetcher, dispatcher Dispatcher, idle time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		fetcher:    fetcher,
		dispatcher: dispatcher,
		idle:       idle,
		logger:     logger,
	}
}

// Start runs cycles until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.cycle(ctx) != StateIdle {
			continue
		}

		s.logger.Info("no news found, idling", "state", StateIdle, "for", s.idle)

		timer := time.NewTimer(s.idle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// cycle runs one poll cycle and returns the state the loop moves to next.
func (s *Scheduler) cycle(ctx context.Context) State {
	start := time.Now()
	s.logger.Debug("cycle started", "state", StateFetching)

	batches, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Error("failed to fetch feeds", "err", err)
		return StateIdle
	}

	s.logger.Debug("detection done", "state", StateDetecting, "batches", len(batches))

	if len(batches) == 0 {
		return StateIdle
	}

	s.logger.Debug("dispatching batches", "state", StateDispatching, "batches", len(batches))
	s.dispatcher.Dispatch(ctx, batches)

	s.logger.Info("cycle done", "batches", len(batches), "took", time.Since(start))

	return StatePolling
}
