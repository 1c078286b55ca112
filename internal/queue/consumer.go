// Package queue contains the background consumer that listens to the
// booking.notices queue and writes structured logs to logs/booking.log.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const noticeQueueName = "booking.notices"

// StartNoticeConsumer connects to the broker at url, declares the
// booking.notices queue (durable), and starts consuming messages.
// Each message is appended to logs/booking.log in a single-line,
// human-friendly format. The function runs a reconnect loop and only
// logs processing errors while rejecting the offending message, so
// the server keeps operating when the broker flaps.
func StartNoticeConsumer(url string) error {
	if url == "" {
		return errors.New("no broker url configured")
	}

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("notice-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("notice-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notice-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(noticeQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(noticeQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("notice-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var n Notice
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "booking.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var line string
	switch n.Kind {
	case KindHoldReminder:
		line = fmt.Sprintf("[%s] Hold reminder | user_id=%d | trip_id=%d | seat_id=%d | position=%d | minutes_left=%d\n",
			n.OccurredAt, n.UserID, n.TripID, n.SeatID, n.Position, n.MinutesLeft)
	case KindHoldReleased:
		line = fmt.Sprintf("[%s] Hold released | user_id=%d | trip_id=%d | seat_id=%d | position=%d\n",
			n.OccurredAt, n.UserID, n.TripID, n.SeatID, n.Position)
	case KindBookingConfirmed:
		line = fmt.Sprintf("[%s] Booking confirmed | user_id=%d | email=%s | trip_id=%d | reference=%s | codes=%v | total=%d minor\n",
			n.OccurredAt, n.UserID, n.Email, n.TripID, n.Reference, n.Codes, n.AmountMinor)
	default:
		return fmt.Errorf("unknown notice kind %q", n.Kind)
	}

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
