package events

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"mess_portal_backend/pkg/utils"
)

const changesExchange = "mess.changes"

// AMQPPublisher mirrors change events onto a RabbitMQ topic exchange so
// external consumers (digital signage, mobile push relays) can subscribe
// without talking to the portal directly. Delivery is fire-and-forget.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ Publisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher dials the broker and declares the topic exchange.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		changesExchange, // name
		"topic",         // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", changesExchange, err)
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

// Publish sends the change with routing key "<entity>.<action>".
// Failures are logged, never surfaced: the database commit already happened
// and subscribers re-read on reconnect anyway.
func (p *AMQPPublisher) Publish(change Change) {
	body, err := json.Marshal(change)
	if err != nil {
		utils.LogError(err, "Failed to marshal change event for AMQP")
		return
	}

	routingKey := change.Entity + "." + change.Action
	err = p.ch.Publish(
		changesExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		utils.LogError(err, "Failed to publish change event to AMQP")
	}
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
