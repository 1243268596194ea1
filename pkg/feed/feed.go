// Package feed republishes layout events on a mangos PUB socket so renderers
// outside the process can follow the simulation with a SUB socket.
//
// Each message is the topic, a colon, then the JSON event:
//
//	frame:{"topic":"frame","time":"...","payload":{...}}
//
// Subscribers filter by prefix, e.g. "frame:".
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"

	// Register transports
	_ "go.nanomsg.org/mangos/v3/transport/all"

	"github.com/dd0wney/stratnet/pkg/logging"
	"github.com/dd0wney/stratnet/pkg/metrics"
	"github.com/dd0wney/stratnet/pkg/pubsub"
)

// Separator ends the topic prefix of every message.
const Separator = ':'

// Config configures the publisher.
type Config struct {
	Listen       string         // e.g. tcp://127.0.0.1:7070 or inproc://frames
	Topics       []pubsub.Topic // Defaults to the frame topic
	SendDeadline time.Duration
}

// Publisher forwards bus events to a PUB socket.
type Publisher struct {
	sock    mangos.Socket
	bus     *pubsub.PubSub
	topics  []pubsub.Topic
	addr    string
	logger  logging.Logger
	metrics *metrics.Registry
}

// New opens the PUB socket and starts listening on cfg.Listen.
func New(bus *pubsub.PubSub, cfg Config, logger logging.Logger, m *metrics.Registry) (*Publisher, error) {
	if cfg.Listen == "" {
		return nil, errors.New("feed listen address is required")
	}
	if len(cfg.Topics) == 0 {
		cfg.Topics = []pubsub.Topic{pubsub.TopicFrame}
	}
	if cfg.SendDeadline <= 0 {
		cfg.SendDeadline = 100 * time.Millisecond
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.SetOption(mangos.OptionSendDeadline, cfg.SendDeadline); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to set send deadline: %w", err)
	}
	if err := sock.Listen(cfg.Listen); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to bind PUB socket: %w", err)
	}

	logger = logger.With(logging.Component("feed"))
	logger.Info("frame feed bound", logging.String("addr", cfg.Listen))
	return &Publisher{
		sock:    sock,
		bus:     bus,
		topics:  cfg.Topics,
		addr:    cfg.Listen,
		logger:  logger,
		metrics: m,
	}, nil
}

// Addr returns the listen address.
func (p *Publisher) Addr() string {
	return p.addr
}

// Run forwards events until ctx is cancelled or the bus shuts down. Send
// failures are logged and counted; they never stop the feed.
func (p *Publisher) Run(ctx context.Context) error {
	sub, err := p.bus.Subscribe(ctx, p.topics...)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			err := p.publish(ev)
			p.metrics.RecordFeedPublish(err)
			if err != nil {
				p.logger.Warn("failed to publish event", logging.String("topic", string(ev.Topic)), logging.Error(err))
			}
		}
	}
}

func (p *Publisher) publish(ev pubsub.Event) error {
	msg, err := Encode(ev)
	if err != nil {
		return err
	}
	return p.sock.Send(msg)
}

// Close closes the socket.
func (p *Publisher) Close() error {
	return p.sock.Close()
}

// Encode frames ev as "<topic>:<json>".
func Encode(ev pubsub.Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", ev.Topic, err)
	}
	msg := make([]byte, 0, len(ev.Topic)+1+len(data))
	msg = append(msg, ev.Topic...)
	msg = append(msg, Separator)
	return append(msg, data...), nil
}

// Decode splits a feed message into its topic and JSON body.
func Decode(msg []byte) (pubsub.Topic, []byte, error) {
	i := bytes.IndexByte(msg, Separator)
	if i <= 0 {
		return "", nil, errors.New("feed message has no topic prefix")
	}
	return pubsub.Topic(msg[:i]), msg[i+1:], nil
}

// SubscribePrefix returns the SUB filter for topic.
func SubscribePrefix(topic pubsub.Topic) []byte {
	return append([]byte(topic), Separator)
}
