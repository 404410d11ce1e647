// Package queue carries notification fan-out jobs between the order
// lifecycle authority and the notification worker. Delivery is
// at-least-once; the worker deduplicates.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dishdash/config"
	"dishdash/pkg/logger"
	"dishdash/pkg/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	notificationsExchange = "notifications_fanout"
	notificationsQueue    = "notifications_queue"
)

type IQueue interface {
	PublishJob(ctx context.Context, job *models.NotificationJob) error
	Consume(ctx context.Context) (<-chan amqp.Delivery, error)
	Close()
}

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	log     logger.ILogger
}

func Connect(cfg config.Config, log logger.ILogger) (*RabbitMQ, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitUser, cfg.RabbitPassword, cfg.RabbitHost, cfg.RabbitPort)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		notificationsExchange, // name
		"fanout",              // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	_, err = channel.QueueDeclare(
		notificationsQueue, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.QueueBind(
		notificationsQueue,    // queue name
		"",                    // routing key
		notificationsExchange, // exchange
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	log.Info("RabbitMQ connected")
	return &RabbitMQ{
		conn:    conn,
		channel: channel,
		log:     log,
	}, nil
}

func (r *RabbitMQ) Close() {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}

func (r *RabbitMQ) PublishJob(ctx context.Context, job *models.NotificationJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(ctx,
		notificationsExchange, // exchange
		"",                    // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
}

func (r *RabbitMQ) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	if err := r.channel.Qos(1, 0, false); err != nil {
		return nil, err
	}
	return r.channel.ConsumeWithContext(ctx,
		notificationsQueue, // queue
		"",                 // consumer
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
}
