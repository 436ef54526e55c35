package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"stockswap/internal/models"

	amqp "github.com/streadway/amqp"
)

// DefaultQueue carries export request notifications.
const DefaultQueue = "export_request_events"

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex // amqp.Channel is not safe for concurrent publishes
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient connects to RabbitMQ, opens a channel and declares the event queue.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declare(ch, cfg.Queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Printf("RabbitMQ client connected and %s declared.", cfg.Queue)

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   cfg.Queue,
	}, nil
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Healthy reports whether the underlying connection is still open.
func (c *Client) Healthy() bool {
	return c != nil && c.conn != nil && !c.conn.IsClosed()
}

// PublishExportEvent publishes the event as persistent JSON, routed by its type.
func (c *Client) PublishExportEvent(ctx context.Context, event models.ExportEvent) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := Encode(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			MessageId:    event.RequestID,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.Printf(" [x] Sent %s for export request %s", event.Type, event.RequestID)
	return nil
}

// Encode marshals an event into a message body.
func Encode(event models.ExportEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export event: %w", err)
	}
	return body, nil
}

// Decode parses a message body back into an event.
func Decode(body []byte) (models.ExportEvent, error) {
	var event models.ExportEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal export event: %w", err)
	}
	if event.Type == "" || event.RequestID == "" {
		return event, fmt.Errorf("export event is missing type or request id")
	}
	return event, nil
}

// ConsumeExportEvents starts a goroutine delivering decoded events to handler until ctx
// is cancelled or the channel closes. Undecodable messages are dropped; handler
// failures are requeued.
func (c *Client) ConsumeExportEvents(ctx context.Context, handler func(models.ExportEvent) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf(" [*] Waiting for export request events on %s", c.queue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Printf("RabbitMQ delivery channel closed")
					return
				}
				dispatch(msg, handler)
			}
		}
	}()

	return nil
}

func dispatch(msg amqp.Delivery, handler func(models.ExportEvent) error) {
	event, err := Decode(msg.Body)
	if err != nil {
		log.Printf("Dropping message %d: %v", msg.DeliveryTag, err)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
		}
		return
	}

	if err := handler(event); err != nil {
		log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
	}
}

// LogExportEvent is the default consumer: it records who should be notified of what.
func LogExportEvent(event models.ExportEvent) error {
	notify := event.ToShopID
	if event.Type != "export_request.created" {
		notify = event.FromShopID
	}
	log.Printf("Notify shop %s: %s (request %s, %d of product %s, status %s)",
		notify, event.Type, event.RequestID, event.Quantity, event.ProductID, event.Status)
	return nil
}
