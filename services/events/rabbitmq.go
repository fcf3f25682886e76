package eventsvc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

// RabbitMQPublisher publishes events to a topic exchange, routed by event type.
type RabbitMQPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	cb       *gobreaker.CircuitBreaker
}

var _ core.EventPublisher = (*RabbitMQPublisher)(nil)

func NewRabbitMQPublisher(conf core.AMQPConfig, logger core.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(conf.URL)
	if err != nil {
		return nil, errors.Wrap(err, "dialing rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "opening channel")
	}

	// Declare the exchange (idempotent)
	err = ch.ExchangeDeclare(
		conf.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "declaring exchange")
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "RabbitMQ-Publisher",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// open after 3 consecutive failures
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker " + name + ": " + from.String() + " -> " + to.String())
		},
	})

	return &RabbitMQPublisher{conn: conn, ch: ch, exchange: conf.Exchange, cb: cb}, nil
}

func (pub *RabbitMQPublisher) Publish(ctx context.Context, evt core.Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "encoding event")
	}

	_, err = pub.cb.Execute(func() (interface{}, error) {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return nil, pub.ch.PublishWithContext(ctx,
			pub.exchange,
			evt.Type, // routing key
			false,    // mandatory
			false,    // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    evt.OccurredAt,
				Type:         evt.Type,
				Body:         body,
			},
		)
	})
	return errors.Wrap(err, "publishing event")
}

func (pub *RabbitMQPublisher) Close() error {
	if pub.ch != nil {
		if err := pub.ch.Close(); err != nil {
			return err
		}
	}
	if pub.conn != nil {
		return pub.conn.Close()
	}
	return nil
}
