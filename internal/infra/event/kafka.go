package event

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"marketplace/internal/config"
	"marketplace/internal/domain/model"
)

// Kafka は注文ステータスの変更をトピックに流す
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func NewKafka(cfg config.Kafka, log *zap.Logger) (*Kafka, error) {
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, err
	}
	return &Kafka{producer: producer, topic: cfg.Topic, log: log}, nil
}

// 同じ注文のイベントは同じパーティションに入るようキーを注文IDにする
func (k *Kafka) PublishOrderEvent(ctx context.Context, evt model.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(strconv.FormatInt(evt.OrderID, 10)),
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
	}
	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return err
	}

	k.log.Debug("order event published",
		zap.Int64("order_id", evt.OrderID),
		zap.String("to", string(evt.To)),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}

// Nop はKafka無しの環境用
type Nop struct{}

func (Nop) PublishOrderEvent(context.Context, model.OrderEvent) error { return nil }
