package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/keerthik-19/summer-camp-registration/internal/models"
	"github.com/keerthik-19/summer-camp-registration/internal/services"
)

// DefaultQueue is the durable queue notification events are published to.
const DefaultQueue = "registration.notifications"

// DefaultMaxAttempts bounds how often a failed delivery is retried.
const DefaultMaxAttempts = 5

const (
	retryBaseDelay = 5 * time.Second
	retryMaxDelay  = 5 * time.Minute
)

// Event asks the consumer to send one email. The consumer reloads the
// registration, so the event carries identifiers only.
type Event struct {
	Kind           Kind      `json:"kind"`
	RegistrationID uint      `json:"registrationId"`
	Ticket         string    `json:"ticket"`
	QueuedAt       time.Time `json:"queuedAt"`
	Attempts       int       `json:"attempts,omitempty"`
}

// QueueNotifier publishes notification events instead of sending mail
// during the request.
type QueueNotifier struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewQueueNotifier(url, queue string) *QueueNotifier {
	if queue == "" {
		queue = DefaultQueue
	}
	return &QueueNotifier{url: url, queue: queue}
}

func (q *QueueNotifier) Confirmation(ctx context.Context, reg *models.Registration) error {
	return q.Publish(ctx, newEvent(KindConfirmation, reg))
}

func (q *QueueNotifier) PaymentReminder(ctx context.Context, reg *models.Registration) error {
	return q.Publish(ctx, newEvent(KindReminder, reg))
}

func newEvent(kind Kind, reg *models.Registration) Event {
	return Event{Kind: kind, RegistrationID: reg.ID, Ticket: reg.RegistrationID, QueuedAt: time.Now().UTC()}
}

// Publish sends ev as a persistent message. A broken channel is dropped so
// the next call reconnects.
func (q *QueueNotifier) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	ch, err := q.channelLocked()
	if err != nil {
		log.Printf("rabbitmq: connect failed: %v", err)
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.QueuedAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		q.closeLocked()
		return err
	}
	return nil
}

func (q *QueueNotifier) channelLocked() (*amqp.Channel, error) {
	if q.ch != nil && !q.ch.IsClosed() {
		return q.ch, nil
	}
	q.closeLocked()

	conn, err := amqp.Dial(q.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(q.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	q.conn, q.ch = conn, ch
	return ch, nil
}

func (q *QueueNotifier) closeLocked() {
	if q.ch != nil {
		_ = q.ch.Close()
		q.ch = nil
	}
	if q.conn != nil {
		_ = q.conn.Close()
		q.conn = nil
	}
}

func (q *QueueNotifier) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closeLocked()
	return nil
}

// Loader fetches the registration an event refers to.
type Loader interface {
	GetByID(ctx context.Context, id uint) (*models.Registration, error)
}

// Consumer drains the notification queue and delivers each event through
// a Notifier, normally the SendGrid Mailer.
type Consumer struct {
	URL         string
	Queue       string
	Loader      Loader
	Sender      services.Notifier
	MaxAttempts int // DefaultMaxAttempts when zero
}

// Publisher is the part of *amqp.Channel used to schedule retries.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// errPermanent marks events that can never succeed; they are not retried.
var errPermanent = errors.New("permanent")

// RetryQueue holds failed events until their per-message TTL expires, then
// dead-letters them back onto queue.
func RetryQueue(queue string) string { return queue + ".retry" }

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff when the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	queue := c.Queue
	if queue == "" {
		queue = DefaultQueue
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			log.Printf("notify-consumer: dial failed: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn, queue)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("notify-consumer: consume loop ended: %v; reconnecting", err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, queue string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("notify-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	retryArgs := amqp.Table{"x-dead-letter-exchange": "", "x-dead-letter-routing-key": queue}
	if _, err := ch.QueueDeclare(RetryQueue(queue), true, false, false, false, retryArgs); err != nil {
		return fmt.Errorf("retry queue declare: %w", err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if c.Process(ctx, ch, queue, d.Body) {
				_ = d.Ack(false)
			} else {
				_ = d.Nack(false, false)
			}
		}
	}
}

// Process handles one delivery and reports whether it should be acked.
// A failed send is republished to the retry queue with its attempt count
// bumped; once MaxAttempts is reached, or when the event is malformed, the
// delivery is rejected.
func (c *Consumer) Process(ctx context.Context, pub Publisher, queue string, body []byte) bool {
	err := c.Handle(ctx, body)
	if err == nil {
		return true
	}
	if errors.Is(err, errPermanent) {
		log.Printf("notify-consumer: rejecting event: %v", err)
		return false
	}

	var ev Event
	_ = json.Unmarshal(body, &ev)
	ev.Attempts++
	if ev.Attempts >= c.maxAttempts() {
		log.Printf("notify-consumer: giving up on %s for %s after %d attempts: %v", ev.Kind, ev.Ticket, ev.Attempts, err)
		return false
	}
	delay := retryDelay(ev.Attempts)
	log.Printf("notify-consumer: %v; retry %d in %s", err, ev.Attempts, delay)

	next, _ := json.Marshal(ev)
	retry := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Body:         next,
	}
	if perr := pub.PublishWithContext(ctx, "", RetryQueue(queue), false, false, retry); perr != nil {
		log.Printf("notify-consumer: scheduling retry failed: %v", perr)
		return false
	}
	return true
}

func (c *Consumer) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return DefaultMaxAttempts
}

// retryDelay doubles from retryBaseDelay per attempt, capped at retryMaxDelay.
func retryDelay(attempt int) time.Duration {
	d := retryBaseDelay
	for i := 1; i < attempt && d < retryMaxDelay; i++ {
		d *= 2
	}
	return min(d, retryMaxDelay)
}

// Handle delivers one queued event. Events for registrations that no longer
// exist, or whose id now belongs to another ticket, are dropped.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: unmarshal: %v", errPermanent, err)
	}
	reg, err := c.Loader.GetByID(ctx, ev.RegistrationID)
	if errors.Is(err, services.ErrNotFound) || (err == nil && reg.RegistrationID != ev.Ticket) {
		log.Printf("notify-consumer: dropping %s for %s: registration gone", ev.Kind, ev.Ticket)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", ev.Ticket, err)
	}

	switch ev.Kind {
	case KindConfirmation:
		err = c.Sender.Confirmation(ctx, reg)
	case KindReminder:
		err = c.Sender.PaymentReminder(ctx, reg)
	default:
		return fmt.Errorf("%w: unknown event kind %q", errPermanent, ev.Kind)
	}
	if err != nil {
		return fmt.Errorf("send %s for %s: %w", ev.Kind, ev.Ticket, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
