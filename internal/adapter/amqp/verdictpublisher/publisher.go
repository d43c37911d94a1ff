package verdictpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"gitlab.com/codearena.net/internal/config"
	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/ports/secondary"
	"gitlab.com/codearena.net/internal/domain"
)

var (
	_ secondary.VerdictPublisher = (*Publisher)(nil)
	_ secondary.VerdictPublisher = Noop{}
)

// channel is the subset of *amqp.Channel the publisher uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func(ctx context.Context, url string) (channel, io.Closer, error)

const (
	defaultDialTimeout = 10 * time.Second
	defaultHeartbeat   = 10 * time.Second
)

var (
	errReconnecting = errors.New("verdict publisher is reconnecting")
	errClosed       = errors.New("verdict publisher is closed")
)

// dialAMQP connects within ctx: the TCP dial and the AMQP handshake share its deadline
func dialAMQP(ctx context.Context, url string) (channel, io.Closer, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: defaultHeartbeat,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			deadline, ok := ctx.Deadline()
			if !ok {
				deadline = time.Now().Add(defaultDialTimeout)
			}
			// cleared by the library once the connection is open
			if err := c.SetDeadline(deadline); err != nil {
				_ = c.Close()
				return nil, err
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, conn, nil
}

// Publisher sends verdict events to a topic exchange, routed by status.
// The lock only guards the connection fields; dialing happens outside it,
// and publishes arriving while a dial is in flight fail fast.
type Publisher struct {
	url      string
	exchange string
	logger   primary.Logger
	dial     dialFunc

	mu      sync.Mutex
	ch      channel
	conn    io.Closer
	dialing bool
	closed  bool
}

func NewPublisher(ctx context.Context, cfg *config.AmqpConfig, logger primary.Logger) (*Publisher, error) {
	return newPublisher(ctx, cfg, logger, dialAMQP)
}

func newPublisher(ctx context.Context, cfg *config.AmqpConfig, logger primary.Logger, dial dialFunc) (*Publisher, error) {
	p := &Publisher{
		url:      cfg.Url,
		exchange: cfg.Exchange,
		logger:   logger,
		dial:     dial,
	}
	ch, conn, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	p.ch, p.conn = ch, conn
	return p, nil
}

// open dials and declares the exchange without touching the publisher state
func (p *Publisher) open(ctx context.Context) (channel, io.Closer, error) {
	ch, conn, err := p.dial(ctx, p.url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if conn != nil {
			_ = conn.Close()
		}
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}
	return ch, conn, nil
}

// current returns the open channel, reconnecting when there is none
func (p *Publisher) current(ctx context.Context) (channel, error) {
	p.mu.Lock()
	if p.ch != nil && !p.ch.IsClosed() {
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	}
	stale := p.ch
	p.mu.Unlock()
	return p.reconnect(ctx, stale)
}

// reconnect replaces stale with a fresh channel. If another caller already
// replaced it, that channel is returned instead of dialing again.
func (p *Publisher) reconnect(ctx context.Context, stale channel) (channel, error) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return nil, errClosed
	case p.ch != nil && p.ch != stale && !p.ch.IsClosed():
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	case p.dialing:
		p.mu.Unlock()
		return nil, errReconnecting
	}
	p.dialing = true
	p.closeLocked()
	p.mu.Unlock()

	p.logger.Warn("Reconnecting verdict publisher", "exchange", p.exchange)
	ch, conn, err := p.open(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		return nil, err
	}
	if p.closed {
		_ = ch.Close()
		if conn != nil {
			_ = conn.Close()
		}
		return nil, errClosed
	}
	p.ch, p.conn = ch, conn
	return ch, nil
}

func routingKey(status domain.SubmissionStatus) string {
	return "verdict." + string(status)
}

func (p *Publisher) PublishVerdict(ctx context.Context, event domain.VerdictEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.SubmissionID.String(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	ch, err := p.current(ctx)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey(event.Status), false, false, msg)
	if err == nil {
		return nil
	}

	p.logger.Warn("Failed to publish verdict, retrying once", "submissionId", event.SubmissionID, "error", err)
	ch, reconnectErr := p.reconnect(ctx, ch)
	if reconnectErr != nil {
		return errors.Join(err, reconnectErr)
	}
	return ch.PublishWithContext(ctx, p.exchange, routingKey(event.Status), false, false, msg)
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.closeLocked()
	return nil
}

// Noop drops events; used when no broker is configured
type Noop struct{}

func (Noop) PublishVerdict(context.Context, domain.VerdictEvent) error {
	return nil
}
