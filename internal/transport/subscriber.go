package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mcolombo/buslens/internal/decode"
	"github.com/mcolombo/buslens/internal/randutil"
)

// encodingHeader lets publishers declare an encoding explicitly,
// overriding whatever the content-type maps to.
const encodingHeader = "x-encoding"

type Config struct {
	URL      string
	Exchange string
	Topic    string // binding pattern, e.g. "sensors.#"
}

// Subscriber captures messages from a topic exchange on an exclusive
// auto-delete queue. It only observes traffic; it never publishes.
type Subscriber struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  Config
}

func NewSubscriber(cfg Config) (*Subscriber, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to open channel: %w", err), conn.Close())
	}

	return &Subscriber{
		conn:    conn,
		channel: ch,
		config:  cfg,
	}, nil
}

// Subscribe binds a fresh exclusive queue to the configured exchange and
// streams captured payloads until ctx is cancelled or the channel closes.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan decode.Raw, error) {
	queueName := fmt.Sprintf("buslens-%s", randutil.RandomSuffix())

	q, err := s.channel.QueueDeclare(
		queueName,
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if s.config.Exchange != "" {
		err = s.channel.QueueBind(
			q.Name,
			s.config.Topic,
			s.config.Exchange,
			false, // no-wait
			nil,   // args
		)
		if err != nil {
			return nil, fmt.Errorf("failed to bind queue: %w", err)
		}
	}

	msgs, err := s.channel.Consume(
		q.Name,
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	raws := make(chan decode.Raw, 100)

	go func() {
		defer close(raws)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				ts := msg.Timestamp
				if ts.IsZero() {
					ts = time.Now()
				}

				raws <- decode.Raw{
					Topic:     msg.RoutingKey,
					Encoding:  EncodingOf(msg.ContentType, msg.Headers),
					Body:      msg.Body,
					Timestamp: ts,
				}
			}
		}
	}()

	return raws, nil
}

func (s *Subscriber) Close() error {
	var chanErr error
	if s.channel != nil {
		chanErr = s.channel.Close()
	}
	if s.conn != nil {
		return errors.Join(chanErr, s.conn.Close())
	}
	return chanErr
}

// EncodingOf resolves a delivery's declared encoding id from its
// content-type, with the x-encoding header taking precedence. Unknown
// content-types pass through unchanged; the decode registry handles the
// fallback for ids it does not recognize.
func EncodingOf(contentType string, headers amqp.Table) string {
	if headers != nil {
		if v, ok := headers[encodingHeader].(string); ok && v != "" {
			return strings.ToLower(v)
		}
	}

	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch ct {
	case "text/plain", "text/html":
		return "text"
	case "application/json":
		return "json"
	case "application/x-protobuf", "application/protobuf", "application/vnd.google.protobuf":
		return "protobuf"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpeg"
	case "application/octet-stream":
		return "raw"
	case "":
		return ""
	default:
		return ct
	}
}
