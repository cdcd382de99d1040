package mq

import (
	"context"

	"github.com/IBM/sarama"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/angohost/payref/pkg/config"
)

// Producer is the outbound messaging surface used by the outbox sender.
type Producer interface {
	Send(topic, key, value string) error
}

type kafkaProducer struct {
	producer sarama.SyncProducer
}

func NewProducer(lc fx.Lifecycle, l *zap.SugaredLogger, cfg *cfgpkg.Config) (Producer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, kafkaConfig)
	if err != nil {
		l.Errorf("failed to create kafka producer: %v", err)
		return nil, err
	}
	l.Infow("kafka producer ready", "brokers", cfg.Kafka.Brokers)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Infow("closing kafka producer")
			return producer.Close()
		},
	})

	return &kafkaProducer{producer: producer}, nil
}

func (p *kafkaProducer) Send(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}
	_, _, err := p.producer.SendMessage(msg)
	return err
}

var Module = fx.Options(
	fx.Provide(NewProducer),
)
