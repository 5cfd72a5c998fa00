package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"pet-run-board/internal/domain/assignments"
)

const DefaultQueue = "board.saved"

var ErrClosed = errors.New("rabbitmq publisher closed")

// Config del publisher (RABBITMQ_URL). Queue vacío usa DefaultQueue.
type Config struct {
	URL   string
	Queue string
}

// publishChannel es lo que usamos de *amqp.Channel.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher mantiene una conexión y un canal abiertos; publica en la cola durable.
type Publisher struct {
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     publishChannel
	queue  string
	now    func() time.Time
	closed bool
}

var _ assignments.Publisher = (*Publisher)(nil)

// Dial conecta, abre canal y declara la cola (idempotente).
func Dial(cfg Config) (*Publisher, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("rabbitmq: url required")
	}
	queue := queueName(cfg.Queue)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}

	p := newPublisher(ch, queue)
	p.conn = conn
	return p, nil
}

func newPublisher(ch publishChannel, queue string) *Publisher {
	return &Publisher{ch: ch, queue: queueName(queue), now: time.Now}
}

// PublishBoardSaved manda el evento como JSON persistente a la cola (default exchange).
func (p *Publisher) PublishBoardSaved(ctx context.Context, ev assignments.BoardSaved) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Type:         p.queue,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func queueName(q string) string {
	if q = strings.TrimSpace(q); q == "" {
		return DefaultQueue
	}
	return q
}
