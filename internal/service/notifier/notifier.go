// Package notifier publishes seat-lifecycle notices to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures
// without interrupting the main request flow.
package notifier

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/orromotors/bus-seat-reservation/internal/queue"
)

const noticeQueueName = "booking.notices"

// Notifier is the fire-and-forget notification dispatch consumed by
// the scheduler and the finalizer.  The AMQP implementation dials
// per publish, which keeps the publisher stateless across broker
// restarts.  An empty broker URL disables publishing entirely.
type Notifier struct {
	url string
}

// New returns a Notifier publishing to the given broker URL.
func New(url string) *Notifier { return &Notifier{url: url} }

// HoldReminder tells the holder their seat is still awaiting payment.
func (n *Notifier) HoldReminder(ctx context.Context, userID, tripID, seatID uint64, position uint32, minutesLeft int) error {
	return n.publish(ctx, q.Notice{
		Kind:        q.KindHoldReminder,
		UserID:      userID,
		TripID:      tripID,
		SeatID:      seatID,
		Position:    position,
		MinutesLeft: minutesLeft,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// HoldReleased tells the holder their unpaid hold was reclaimed.
func (n *Notifier) HoldReleased(ctx context.Context, userID, tripID, seatID uint64, position uint32) error {
	return n.publish(ctx, q.Notice{
		Kind:       q.KindHoldReleased,
		UserID:     userID,
		TripID:     tripID,
		SeatID:     seatID,
		Position:   position,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// BookingConfirmed announces the bookings produced by a finalized
// payment.
func (n *Notifier) BookingConfirmed(ctx context.Context, userID uint64, email string, tripID uint64, reference string, codes []string, amountMinor int64) error {
	return n.publish(ctx, q.Notice{
		Kind:        q.KindBookingConfirmed,
		UserID:      userID,
		Email:       email,
		TripID:      tripID,
		Reference:   reference,
		Codes:       codes,
		AmountMinor: amountMinor,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// publish sends a notice to the booking.notices queue. It attempts
// to be robust and to never panic; any error is logged and returned
// so the caller can choose to ignore it. Messages are marked as
// persistent.  With no broker configured the notice is silently
// dropped.
func (n *Notifier) publish(ctx context.Context, notice q.Notice) error {
	if n.url == "" {
		return nil
	}
	conn, err := amqp.Dial(n.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		noticeQueueName, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(notice)
	if err != nil {
		log.Printf("rabbitmq: marshal notice failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",              // default exchange
		noticeQueueName, // routing key = queue name
		false,           // mandatory
		false,           // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
