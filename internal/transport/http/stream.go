package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"quizroom/internal/app"
	"quizroom/internal/domain"
)

var (
	_ app.QuizAPI      = (*Client)(nil)
	_ app.StreamSource = (*Stream)(nil)
)

// Stream subscribes to pushed room snapshots over a websocket.
type Stream struct {
	url    string
	tokens TokenSource
	dialer *websocket.Dialer
}

func NewStream(wsURL string, tokens TokenSource) *Stream {
	return &Stream{
		url:    wsURL,
		tokens: tokens,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// frame is one message on the wire.
type frame struct {
	Type      string          `json:"type"`
	RoomCode  string          `json:"roomCode"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Payload   json.RawMessage `json:"payload"`
}

// Subscribe dials the stream for roomCode. The returned channel closes when
// ctx ends or the server goes away.
func (s *Stream) Subscribe(ctx context.Context, roomCode string) (<-chan app.StreamEvent, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("stream url: %w", err)
	}
	q := u.Query()
	q.Set("roomCode", roomCode)
	u.RawQuery = q.Encode()

	header := http.Header{}
	if s.tokens != nil {
		if token, err := s.tokens.Token(ctx); err == nil {
			header.Set("Authorization", "Bearer "+token)
		}
	}
	conn, _, err := s.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dial stream: %w", err)
	}

	events := make(chan app.StreamEvent, 16)
	readerDone := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
		case <-readerDone:
		}
		_ = conn.Close()
	}()

	go func() {
		defer close(events)
		defer close(readerDone)
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				if ctx.Err() == nil {
					log.Debug().Err(err).Str("room", roomCode).Msg("stream closed")
				}
				return
			}
			ev, err := decodeFrame(f)
			if err != nil {
				log.Warn().Err(err).Str("type", f.Type).Msg("dropping stream frame")
				continue
			}
			if ev.RoomCode == "" {
				ev.RoomCode = roomCode
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func decodeFrame(f frame) (app.StreamEvent, error) {
	ev := app.StreamEvent{Kind: f.Type, RoomCode: f.RoomCode, UpdatedAt: f.UpdatedAt}
	var err error
	switch f.Type {
	case app.EventMembers:
		err = json.Unmarshal(f.Payload, &ev.Members)
	case app.EventGameStatus:
		err = json.Unmarshal(f.Payload, &ev.Status)
	case app.EventLeaderboard:
		err = json.Unmarshal(f.Payload, &ev.Leaderboard)
	default:
		return ev, fmt.Errorf("%w: unknown frame type %q", domain.ErrWireSchema, f.Type)
	}
	if err != nil {
		return ev, fmt.Errorf("decode %s frame: %w", f.Type, err)
	}
	return ev, nil
}
