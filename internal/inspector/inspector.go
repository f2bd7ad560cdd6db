package inspector

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/netutil"

	"github.com/Versifine/gravshift/internal/config"
	"github.com/Versifine/gravshift/internal/game"
)

const (
	// Time allowed to write one snapshot to the peer.
	writeWait = 2 * time.Second

	// Inbound frames are only read to notice the peer going away.
	maxMessageSize = 512

	shutdownTimeout = 2 * time.Second

	defaultPeriod = 100 * time.Millisecond
)

var json = jsoniter.Config{
	EscapeHTML:                    false,
	SortMapKeys:                   true,
	MarshalFloatWith6Digits:       true,
	ObjectFieldMustBeSimpleString: true,
}.Froze()

// SnapshotSource is usually a *game.Session.
type SnapshotSource interface {
	Snapshot() game.Snapshot
}

// Server exposes session snapshots over HTTP and a websocket stream.
type Server struct {
	addr     string
	maxConns int
	period   time.Duration
	source   SnapshotSource
	upgrader websocket.Upgrader
}

func NewServer(cfg config.InspectorConfig, source SnapshotSource) *Server {
	period := cfg.Period
	if period <= 0 {
		period = defaultPeriod
	}
	return &Server{
		addr:     cfg.Addr(),
		maxConns: cfg.MaxConns,
		period:   period,
		source:   source,
		upgrader: websocket.Upgrader{
			CheckOrigin:      func(r *http.Request) bool { return true },
			HandshakeTimeout: time.Second,
			ReadBufferSize:   maxMessageSize,
			WriteBufferSize:  4096,
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", s.serveState)
	mux.HandleFunc("/ws", s.serveSocket)
	return mux
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("Starting inspector", "addr", s.addr, "max_conns", s.maxConns)
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	if s.maxConns > 0 {
		l = netutil.LimitListener(l, s.maxConns)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// Hijacked websocket streams are not closed by Shutdown; they watch
		// the request context instead.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		slog.Info("Shutting down inspector")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err = srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		slog.Info("Inspector stopped")
		return nil
	}
	return err
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.source.Snapshot()); err != nil {
		slog.Warn("Failed to write snapshot", "error", err)
	}
}

func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	slog.Debug("Inspector client connected", "remote", conn.RemoteAddr())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(maxMessageSize)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		if err := s.writeSnapshot(conn); err != nil {
			slog.Debug("Inspector client dropped", "remote", conn.RemoteAddr(), "error", err)
			return
		}
		select {
		case <-closed:
			slog.Debug("Inspector client disconnected", "remote", conn.RemoteAddr())
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	wr, err := conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(wr).Encode(s.source.Snapshot()); err != nil {
		_ = wr.Close()
		return err
	}
	return wr.Close()
}
