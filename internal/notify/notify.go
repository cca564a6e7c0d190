package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"barberbook/internal/metrics"
)

// Message is one notification to a Telegram chat. ReferenceID and Screen let
// the receiving client deep-link back to the reservation.
type Message struct {
	ReceiverID  int64
	Text        string
	ReferenceID int64
	Screen      string
}

// Sender delivers a single message to its receiver.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config tunes the dispatcher.
type Config struct {
	QueueSize   int
	RatePerSec  float64
	Burst       int
	MaxAttempts int
	RetryDelay  time.Duration
}

// DefaultConfig matches Telegram's per-bot send limits with headroom.
func DefaultConfig() Config {
	return Config{
		QueueSize:   256,
		RatePerSec:  20,
		Burst:       5,
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
	}
}

// Dispatcher is a fire-and-forget notification queue. Enqueue never blocks
// the caller: a full queue drops the message and logs it. Delivery failures
// never propagate to the operation that produced the notification.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	limiter *rate.Limiter
	cfg     Config
	logger  *zerolog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, cfg Config, logger *zerolog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = DefaultConfig().RatePerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, cfg.QueueSize),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		cfg:     cfg,
		logger:  logger,
	}
}

// Start launches the delivery worker. It drains until ctx is canceled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-d.queue:
				d.deliver(ctx, msg)
			}
		}
	}()
}

// Wait blocks until the worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue queues a message for delivery. It reports false when the queue is
// full and the message was dropped.
func (d *Dispatcher) Enqueue(msg Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		metrics.NotificationsSent.WithLabelValues("dropped").Inc()
		d.logger.Warn().
			Int64("receiver_id", msg.ReceiverID).
			Int64("reference_id", msg.ReferenceID).
			Msg("notification queue full, message dropped")
		return false
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	if err := d.limiter.Wait(ctx); err != nil {
		return
	}

	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		err = d.sender.Send(ctx, msg)
		if err == nil {
			metrics.NotificationsSent.WithLabelValues("sent").Inc()
			return
		}
		if attempt < d.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.cfg.RetryDelay):
			}
		}
	}

	metrics.NotificationsSent.WithLabelValues("failed").Inc()
	d.logger.Error().Err(err).
		Int64("receiver_id", msg.ReceiverID).
		Int64("reference_id", msg.ReferenceID).
		Int("attempts", d.cfg.MaxAttempts).
		Msg("notification delivery failed")
}
