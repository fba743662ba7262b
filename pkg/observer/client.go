// Package observer is the remote side of the telemetry link: it receives
// snapshots from a stand and sends it test commands.
package observer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itohio/thruststand/pkg/meter"
	"github.com/itohio/thruststand/pkg/telemetry"
)

// DefaultBufferSize is the size of the snapshots channel.
const DefaultBufferSize = 100

// Client is a WebSocket connection to a stand.
type Client struct {
	conn      *websocket.Conn
	snapshots chan meter.Snapshot

	writeMu sync.Mutex
	closeMu sync.Once
	done    chan struct{}
}

// Dial connects to the stand's telemetry endpoint, e.g. ws://stand.local:81/.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	c := &Client{
		conn:      conn,
		snapshots: make(chan meter.Snapshot, DefaultBufferSize),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Snapshots returns received snapshots stamped with their receive time. The
// channel is closed when the connection ends.
func (c *Client) Snapshots() <-chan meter.Snapshot {
	return c.snapshots
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Send transmits a test command.
func (c *Client) Send(cmd meter.Command) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(cmd.String())); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd, err)
	}
	return nil
}

// Close ends the connection and waits for the reader to stop.
func (c *Client) Close() error {
	var err error
	c.closeMu.Do(func() {
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	<-c.done
	return err
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.snapshots)

	for {
		frameType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Telemetry connection lost: %v", err)
			}
			return
		}

		msg, err := telemetry.DecodeFrame(frameType, data)
		if err != nil {
			log.Printf("Dropping telemetry frame: %v", err)
			continue
		}

		select {
		case c.snapshots <- msg.Snapshot(time.Now()):
		default:
			log.Printf("Snapshots channel full, dropping snapshot")
		}
	}
}
