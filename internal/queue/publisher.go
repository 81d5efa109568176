package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrBufferFull is returned by Publish when the outbound buffer is full and
// the event was dropped.
var ErrBufferFull = errors.New("queue: publish buffer full")

// Publisher sends events to a durable queue.  Publish only enqueues; Run
// drains the buffer, dialing the broker lazily and re-dialing after it
// closes the connection.  A broker outage therefore never blocks a request.
type Publisher struct {
	url    string
	queue  string
	log    *zap.Logger
	events chan Event

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the given broker URL and queue with
// room for buffer pending events.
func NewPublisher(url, queueName string, buffer int, log *zap.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{url: url, queue: queueName, log: log, events: make(chan Event, buffer)}
}

// Publish enqueues ev.  It never waits for the broker.
func (p *Publisher) Publish(_ context.Context, ev Event) error {
	select {
	case p.events <- ev:
		return nil
	default:
		p.log.Warn("audit: buffer full, event dropped", zap.String("type", ev.Type), zap.String("id", ev.ID))
		return ErrBufferFull
	}
}

// Run sends buffered events until ctx is cancelled, then flushes what is
// left with a short deadline and closes the connection.
func (p *Publisher) Run(ctx context.Context) {
	defer p.reset()
	for {
		select {
		case ev := <-p.events:
			p.send(ctx, ev)
		case <-ctx.Done():
			flush, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			for {
				select {
				case ev := <-p.events:
					p.send(flush, ev)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) send(ctx context.Context, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("audit: marshal event failed", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	ch, err := p.channel()
	if err != nil {
		p.log.Warn("audit: broker unavailable, event dropped", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("audit: publish failed", zap.String("type", ev.Type), zap.Error(err))
		p.reset()
	}
}

// channel returns an open channel, dialing and declaring the queue when
// needed.  Only Run calls it.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Idempotent. Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Nop discards events.  It is used when auditing is disabled.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) error { return nil }
