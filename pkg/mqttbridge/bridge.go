// Package mqttbridge mirrors telemetry to an MQTT broker and accepts test
// commands from a command topic.
package mqttbridge

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/itohio/thruststand/pkg/config"
	"github.com/itohio/thruststand/pkg/meter"
	"github.com/itohio/thruststand/pkg/telemetry"
)

const (
	keepAlive      = 30 // seconds
	publishTimeout = 5 * time.Second
)

// Bridge publishes snapshots to the telemetry topic from a bounded queue so
// a slow broker never stalls the control loop.
type Bridge struct {
	cfg    config.MQTTConfig
	codec  telemetry.Codec
	sink   meter.CommandSink
	client *paho.Client

	queue        chan []byte
	dropped      atomic.Uint64
	clientErrors atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Dial connects to the broker, subscribes to the command topic and starts
// the publisher.
func Dial(ctx context.Context, cfg config.MQTTConfig, codec telemetry.Codec, sink meter.CommandSink) (*Bridge, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("failed to dial MQTT broker %s: %w", cfg.Broker, err)
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = config.Default().MQTT.QueueSize
	}

	b := &Bridge{
		cfg:   cfg,
		codec: codec,
		sink:  sink,
		queue: make(chan []byte, queueSize),
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())

	clientID := cfg.ClientID + "-" + uuid.NewString()[:8]
	b.client = paho.NewClient(paho.ClientConfig{
		ClientID: clientID,
		Conn:     conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			b.onPublish,
		},
		OnClientError: b.onClientError,
	})

	if _, err := b.client.Connect(ctx, &paho.Connect{
		ClientID:   clientID,
		KeepAlive:  keepAlive,
		CleanStart: true,
	}); err != nil {
		b.cancel()
		conn.Close()
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	if _, err := b.client.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: cfg.CommandTopic, QoS: cfg.QoS},
		},
	}); err != nil {
		b.cancel()
		b.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		return nil, fmt.Errorf("failed to subscribe to %s: %w", cfg.CommandTopic, err)
	}

	b.wg.Add(1)
	go b.publishLoop()

	log.Printf("MQTT bridge connected to %s as %s (telemetry %s, commands %s)",
		cfg.Broker, clientID, cfg.TelemetryTopic, cfg.CommandTopic)
	return b, nil
}

// Publish queues snap for the telemetry topic. When the queue is full the
// snapshot is dropped.
func (b *Bridge) Publish(snap meter.Snapshot) error {
	data, err := b.codec.Marshal(telemetry.FromSnapshot(snap))
	if err != nil {
		return fmt.Errorf("failed to encode telemetry: %w", err)
	}

	select {
	case b.queue <- data:
	default:
		if n := b.dropped.Add(1); n == 1 || n%100 == 0 {
			log.Printf("MQTT queue full, %d snapshots dropped", n)
		}
	}
	return nil
}

// Dropped returns how many snapshots were dropped on a full queue.
func (b *Bridge) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops publishing and disconnects from the broker.
func (b *Bridge) Close() error {
	b.cancel()
	b.wg.Wait()
	if err := b.client.Disconnect(&paho.Disconnect{ReasonCode: 0}); err != nil {
		return fmt.Errorf("failed to disconnect from MQTT broker: %w", err)
	}
	return nil
}

func (b *Bridge) publishLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case data := <-b.queue:
			ctx, cancel := context.WithTimeout(b.ctx, publishTimeout)
			_, err := b.client.Publish(ctx, &paho.Publish{
				Topic:   b.cfg.TelemetryTopic,
				QoS:     b.cfg.QoS,
				Payload: data,
			})
			cancel()
			if err != nil && b.ctx.Err() == nil {
				log.Printf("MQTT publish failed: %v", err)
			}
		}
	}
}

// onClientError logs connection failures. Errors after Close are the
// connection being torn down and are not reported.
func (b *Bridge) onClientError(err error) {
	if b.ctx.Err() != nil {
		return
	}
	b.clientErrors.Add(1)
	log.Printf("MQTT client error: %v", err)
}

func (b *Bridge) onPublish(pr paho.PublishReceived) (bool, error) {
	if pr.Packet.Topic != b.cfg.CommandTopic {
		return false, nil
	}
	cmd, ok := meter.ParseCommand(string(pr.Packet.Payload))
	if !ok {
		return true, nil
	}
	log.Printf("MQTT command %s", cmd)
	if b.sink != nil {
		b.sink.Apply(cmd)
	}
	return true, nil
}
