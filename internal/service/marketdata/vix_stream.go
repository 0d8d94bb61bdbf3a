package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	drepo "SignalDesk/internal/domain/repository"
	"SignalDesk/pkg/logger"

	"github.com/gorilla/websocket"
)

// VIXStream implements a push feed of volatility-index readings over the
// provider's WebSocket, keeping the risk governor's gate current between
// REST polls.
type VIXStream struct {
	apiKey         string
	websocketURL   string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
}

func NewVIXStream(apiKey, websocketURL string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) *VIXStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &VIXStream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection and subscribes to the
// volatility index.
func (s *VIXStream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("vix stream connect: %w", err)
	}
	s.conn = conn
	s.connected = true

	msg := map[string]string{"type": "subscribe", "symbol": vixSymbol}
	if err := s.conn.WriteJSON(msg); err != nil {
		s.connected = false
		_ = s.conn.Close()
		return fmt.Errorf("vix stream subscribe: %w", err)
	}
	s.log.Info("vix stream connected", logger.String("symbol", vixSymbol))
	return nil
}

type wsQuote struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsQuote `json:"data"`
}

// Read streams VIX readings and errors. A read error ends both channels;
// the owner decides whether to Reconnect.
func (s *VIXStream) Read(ctx context.Context) (<-chan float64, <-chan error) {
	readings := make(chan float64, 64)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(readings)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("vix stream conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("vix stream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-quote frames
					continue
				}
				if m.Type != "trade" && m.Type != "quote" {
					continue
				}
				for _, d := range m.Data {
					if d.S != vixSymbol || d.P <= 0 {
						continue
					}
					select {
					case readings <- d.P:
					default:
						// drop on backpressure: only the latest reading matters
					}
				}
			}
		}
	}()

	return readings, errs
}

// Reconnect closes and reconnects.
func (s *VIXStream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	return s.Connect(ctx)
}

// Close closes the WS connection.
func (s *VIXStream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *VIXStream) IsConnected() bool { return s.connected }

var _ drepo.VIXStream = (*VIXStream)(nil)
