package cleanup

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"notely/notely/utils/logging"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// QueueName is the durable queue cleanup messages travel through.
const QueueName = "blob_cleanup"

type message struct {
	URL string `json:"url"`
}

// channel is the part of *amqp.Channel the publisher and worker use.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// AMQPPublisher sends cleanup jobs to RabbitMQ instead of an in-process
// channel, so they survive a restart of this process.
type AMQPPublisher struct {
	open      func() (channel, error)
	closeConn func() error

	mu  sync.Mutex // guards pub; amqp channels are not safe for concurrent use
	pub channel
}

func DialAMQP(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", QueueName, err)
	}
	open := func() (channel, error) {
		c, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return newAMQPPublisher(ch, open, conn.Close), nil
}

func newAMQPPublisher(pub channel, open func() (channel, error), closeConn func() error) *AMQPPublisher {
	return &AMQPPublisher{open: open, closeConn: closeConn, pub: pub}
}

// Enqueue publishes one persistent message per URL. Publish failures are
// logged; the object becomes an orphan for prune-orphans.
func (p *AMQPPublisher) Enqueue(urls ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range urls {
		body, err := json.Marshal(message{URL: u})
		if err != nil {
			logging.ErrorLogger.Error("encode cleanup message", zap.String("url", u), zap.Error(err))
			continue
		}
		err = p.pub.Publish("", QueueName, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
		if err != nil {
			logging.ErrorLogger.Error("publish cleanup message", zap.String("url", u), zap.Error(err))
		}
	}
}

// StartWorker consumes the queue on its own channel and removes each URL.
// Every delivery is acked, failed removals included.
func (p *AMQPPublisher) StartWorker(remover Remover, timeout time.Duration) error {
	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("amqp consumer channel: %w", err)
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("consume %s: %w", QueueName, err)
	}
	go func() {
		logging.AppLogger.Info("blob cleanup worker started", zap.String("queue", QueueName))
		for d := range msgs {
			handleDelivery(remover, d.Body, timeout)
			if err := d.Ack(false); err != nil {
				logging.ErrorLogger.Error("ack cleanup message", zap.Error(err))
			}
		}
	}()
	return nil
}

func handleDelivery(remover Remover, body []byte, timeout time.Duration) {
	var msg message
	if err := json.Unmarshal(body, &msg); err != nil || msg.URL == "" {
		logging.ErrorLogger.Error("bad cleanup message", zap.ByteString("body", body), zap.Error(err))
		return
	}
	removeOne(remover, msg.URL, timeout)
}

func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pub.Close()
	if p.closeConn != nil {
		p.closeConn()
	}
}
