package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itohio/thruststand/pkg/config"
	"github.com/itohio/thruststand/pkg/meter"
)

const writeTimeout = 2 * time.Second

// Server publishes snapshots to WebSocket observers and forwards their
// commands to a CommandSink.
type Server struct {
	cfg   config.TelemetryConfig
	codec Codec
	hub   *Hub
	sink  meter.CommandSink

	upgrader websocket.Upgrader

	// conns counts observers being served. Once closing is set no new
	// observer is admitted.
	connMu  sync.Mutex
	closing bool
	conns   sync.WaitGroup
}

// NewServer creates a telemetry server. Commands received from observers
// are applied to sink.
func NewServer(cfg config.TelemetryConfig, sink meter.CommandSink) (*Server, error) {
	codec, err := NewCodec(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:   cfg,
		codec: codec,
		hub:   NewHub(DefaultQueueSize),
		sink:  sink,
		upgrader: websocket.Upgrader{
			// Observers are browsers and tools on the field network.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Codec returns the codec used for published messages.
func (s *Server) Codec() Codec {
	return s.codec
}

// Observers returns the number of connected observers.
func (s *Server) Observers() int {
	return s.hub.Len()
}

// Publish encodes snap once and queues it for every observer.
func (s *Server) Publish(snap meter.Snapshot) error {
	data, err := s.codec.Marshal(FromSnapshot(snap))
	if err != nil {
		return fmt.Errorf("failed to encode telemetry: %w", err)
	}
	s.hub.Broadcast(data)
	return nil
}

// Handler returns an http.Handler serving the WebSocket endpoint at the
// configured path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, s)
	return mux
}

// ListenAndServe serves observers until ctx is cancelled, then disconnects
// them.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Telemetry server listening on %s%s (%s)", ln.Addr(), s.cfg.Path, s.codec.Encoding())
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		s.closeConns()
		return fmt.Errorf("telemetry server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	s.closeConns()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("telemetry server shutdown: %w", err)
	}
	return nil
}

// ServeHTTP upgrades the request and serves one observer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.admit() {
		http.Error(w, "telemetry server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.conns.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}

	id, queue := s.hub.Subscribe()
	log.Printf("[%s] Observer connected from %s", id, r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(conn, queue)
	}()

	s.readLoop(id, conn)

	s.hub.Unsubscribe(id)
	<-writerDone
	conn.Close()
	log.Printf("[%s] Observer disconnected", id)
}

// writeLoop is the only writer on conn.
func (s *Server) admit() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.closing {
		return false
	}
	s.conns.Add(1)
	return true
}

// closeConns refuses new observers, disconnects the current ones and waits
// for their handlers to return.
func (s *Server) closeConns() {
	s.connMu.Lock()
	s.closing = true
	s.connMu.Unlock()

	s.hub.Close()
	s.conns.Wait()
}

func (s *Server) writeLoop(conn *websocket.Conn, queue <-chan []byte) {
	frameType := s.codec.FrameType()
	for data := range queue {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(frameType, data); err != nil {
			conn.Close()
			return
		}
	}

	// Queue closed: either the reader finished or the hub shut down.
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
}

func (s *Server) readLoop(id string, conn *websocket.Conn) {
	for {
		frameType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[%s] Read error: %v", id, err)
			}
			return
		}
		if frameType != websocket.TextMessage {
			continue
		}

		cmd, ok := meter.ParseCommand(string(data))
		if !ok {
			continue
		}
		log.Printf("[%s] Command %s", id, cmd)
		if s.sink != nil {
			s.sink.Apply(cmd)
		}
	}
}
