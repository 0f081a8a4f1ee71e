package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kzharov/pitchsignal/internal/domain"
)

const (
	// pongWait is the time allowed to read the next pong from the provider.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base backoff before redialing.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff.
	maxReconnectDelay = 60 * time.Second
)

// Stream subscribes to the provider's push feed and delivers match snapshots
// over a channel. It reconnects with exponential backoff until the context is
// cancelled, so a flaky upstream never kills the scan pipeline.
type Stream struct {
	wsURL  string
	apiKey string
	logger *slog.Logger
}

// NewStream creates a Stream for the given websocket endpoint.
func NewStream(wsURL, apiKey string, logger *slog.Logger) *Stream {
	return &Stream{
		wsURL:  wsURL,
		apiKey: apiKey,
		logger: logger.With(slog.String("component", "feed_stream")),
	}
}

// Run dials the provider and forwards snapshots to out until ctx is
// cancelled. The channel is closed on return.
func (s *Stream) Run(ctx context.Context, out chan<- domain.MatchSnapshot) error {
	defer close(out)

	delay := reconnectDelay
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.readOnce(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Warn("stream disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// readOnce holds one connection open and pumps messages until it breaks.
func (s *Stream) readOnce(ctx context.Context, out chan<- domain.MatchSnapshot) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}

	header := map[string][]string{}
	if s.apiKey != "" {
		header["X-Api-Key"] = []string{s.apiKey}
	}

	conn, _, err := dialer.DialContext(ctx, s.wsURL, header)
	if err != nil {
		return fmt.Errorf("feed: dial stream: %w", err)
	}
	defer conn.Close()

	s.logger.Info("stream connected", slog.String("url", s.wsURL))

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read stream: %w", err)
		}

		var payload matchPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			s.logger.Warn("stream message dropped", slog.String("error", err.Error()))
			continue
		}
		if payload.ID == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- payload.toSnapshot(time.Now().UTC()):
		}
	}
}
