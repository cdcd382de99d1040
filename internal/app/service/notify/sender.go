package notify

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/internal/platform/mq"
	"github.com/angohost/payref/internal/repository"
	"github.com/angohost/payref/pkg/config"
)

// Sender drains the outbox table to Kafka. Events are written to the
// outbox inside the same transaction as the payment mutations, so a
// crash between commit and publish only delays delivery, never loses
// it. Delivery is therefore at-least-once; consumers dedupe on
// transaction id.
type Sender struct {
	store    repository.Store
	producer mq.Producer
	cfg      *config.Config
	log      *zap.SugaredLogger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewSender(store repository.Store, producer mq.Producer, cfg *config.Config, log *zap.SugaredLogger) *Sender {
	return &Sender{store: store, producer: producer, cfg: cfg, log: log}
}

func (s *Sender) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	interval := s.cfg.Notify.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Drain(ctx); err != nil {
					s.log.Errorw("outbox drain failed", "error", err.Error())
				}
			}
		}
	}()
}

func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// Drain publishes one batch of pending messages. Each message is
// retried up to Notify.MaxRetries before being parked as failed.
func (s *Sender) Drain(ctx context.Context) error {
	batch := s.cfg.Notify.BatchSize
	if batch <= 0 {
		batch = 100
	}
	messages, err := s.store.PendingMessages(ctx, batch)
	if err != nil {
		return err
	}

	for _, m := range messages {
		if err := s.publish(ctx, m); err != nil {
			s.log.Warnw("failed to publish outbox message",
				"message_id", m.ID, "topic", m.Topic, "retry_count", m.RetryCount, "error", err.Error())
		}
	}
	return nil
}

func (s *Sender) publish(ctx context.Context, m *models.OutboxMessage) error {
	if err := s.producer.Send(m.Topic, m.MessageKey, m.Payload); err != nil {
		if m.RetryCount+1 >= s.cfg.Notify.MaxRetries {
			if markErr := s.store.MarkMessageFailed(ctx, m.ID); markErr != nil {
				return markErr
			}
			s.log.Errorw("outbox message exhausted retries", "message_id", m.ID, "topic", m.Topic)
			return err
		}
		if bumpErr := s.store.BumpMessageRetry(ctx, m.ID); bumpErr != nil {
			return bumpErr
		}
		return err
	}
	return s.store.MarkMessageSent(ctx, m.ID)
}

func registerLifecycle(lc fx.Lifecycle, s *Sender) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			s.Stop()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewSender),
	fx.Invoke(registerLifecycle),
)
