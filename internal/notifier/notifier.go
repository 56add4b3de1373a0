package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

type Sender interface {
	SendPhoto(ctx context.Context, chatID int64, caption, imageURL string) error
}

type DestinationProvider interface {
	Subscribers(ctx context.Context, categoryID int64) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

type DeliveryStorage interface {
	LastTitle(ctx context.Context, destinationID, categoryID int64) (string, error)
	SetLastTitle(ctx context.Context, destinationID, categoryID int64, title string) error
}

type Reporter interface {
	Notify(msg string)
}

// Notifier fans category batches out to their subscribers.
type Notifier struct {
	destinations DestinationProvider
	deliveries   DeliveryStorage
	sender       Sender
	captioner    *Captioner
	reporter     Reporter
	pacing       time.Duration
	logger       *slog.Logger
}

func New(
	destinations DestinationProvider,
	deliveries DeliveryStorage,
	sender Sender,
	captioner *Captioner,
	reporter Reporter,
	pacing time.Duration,
	logger *slog.Logger,
) *Notifier {
	return &Notifier{
		destinations: destinations,
		deliveries:   deliveries,
		sender:       sender,
		captioner:    captioner,
		reporter:     reporter,
		pacing:       pacing,
		logger:       logger,
	}
}

// Dispatch delivers every batch to every destination subscribed to its category and returns
// once all deliveries are done. Destinations are served concurrently; a failing destination
// never affects the others.
func (n *Notifier) Dispatch(ctx context.Context, batches []model.Batch) {
	var wg sync.WaitGroup
	for _, batch := range batches {
		if len(batch.Posts) == 0 {
			continue
		}

		subscribers, err := n.destinations.Subscribers(ctx, batch.Category.ID)
		if err != nil {
			n.logger.Error("failed to load subscribers", "category_id", batch.Category.ID, "err", err)
			continue
		}

		for _, destinationID := range subscribers {
			wg.Add(1)
			go func(destinationID int64, batch model.Batch) {
				defer wg.Done()
				n.deliver(ctx, destinationID, batch)
			}(destinationID, batch)
		}
	}
	wg.Wait()
}

// deliver walks the batch oldest-first, pausing between posts. Only the latest post is sent;
// the earlier ones keep the pacing of the whole batch.
func (n *Notifier) deliver(ctx context.Context, destinationID int64, batch model.Batch) {
	logger := n.logger.With("chat_id", destinationID, "category_id", batch.Category.ID)
	latest := len(batch.Posts) - 1

	for i, post := range batch.Posts {
		if i == latest {
			if err := n.sendLatest(ctx, destinationID, batch.Category, post); err != nil {
				n.handleSendError(ctx, logger, destinationID, err)
				return
			}
		} else {
			logger.Debug("post kept for context", "link", post.Link)
		}

		if err := pause(ctx, n.pacing); err != nil {
			return
		}
	}
}

func (n *Notifier) sendLatest(ctx context.Context, destinationID int64, category model.Category, post model.Post) error {
	last, err := n.deliveries.LastTitle(ctx, destinationID, category.ID)
	if err != nil {
		return fmt.Errorf("load last delivered title: %w", err)
	}
	if last == post.Title {
		n.logger.Debug("already delivered", "chat_id", destinationID, "category_id", category.ID, "title", post.Title)
		return nil
	}

	if err := n.deliveries.SetLastTitle(ctx, destinationID, category.ID, post.Title); err != nil {
		n.logger.Error("failed to store delivered title", "chat_id", destinationID, "category_id", category.ID, "err", err)
	}

	return n.sender.SendPhoto(ctx, destinationID, n.captioner.Caption(ctx, post), post.ImageURL)
}

func (n *Notifier) handleSendError(ctx context.Context, logger *slog.Logger, destinationID int64, err error) {
	var retry *RetryAfterError

	switch {
	case errors.Is(err, ErrUnauthorized):
		logger.Warn("destination unreachable, removing it", "err", err)
		if err := n.destinations.Delete(ctx, destinationID); err != nil {
			logger.Error("failed to remove destination", "err", err)
			return
		}
		n.reporter.Notify(fmt.Sprintf("Destination %d removed: %v", destinationID, err))
	case errors.As(err, &retry):
		logger.Warn("destination throttled, skipping until next cycle", "retry_after", retry.After)
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrBadRequest):
		logger.Error("failed to send post", "err", err)
	default:
		logger.Error("failed to deliver batch", "err", err)
	}
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
