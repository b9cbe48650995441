package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"quizroom/internal/domain"
)

// Keys persisted by a SessionStore.
const (
	KeyToken     = "token"
	KeyUserName  = "userName"
	KeyUserEmail = "userEmail"
	KeyUserID    = "userID"
	KeyGuest     = "guest"
	KeyRoom      = "room"
)

// SessionStore abstracts where the client keeps its session (memory, file, Redis).
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
}

// SessionContext is the typed accessor over a SessionStore. Views never read
// raw keys.
type SessionContext struct {
	store SessionStore
}

func NewSessionContext(store SessionStore) *SessionContext {
	return &SessionContext{store: store}
}

// Load returns the stored session. Missing keys come back empty.
func (s *SessionContext) Load(ctx context.Context) (domain.Session, error) {
	var sess domain.Session
	fields := []struct {
		key string
		dst *string
	}{
		{KeyToken, &sess.Token},
		{KeyUserName, &sess.UserName},
		{KeyUserEmail, &sess.UserEmail},
		{KeyUserID, &sess.UserID},
	}
	for _, f := range fields {
		v, _, err := s.store.Get(ctx, f.key)
		if err != nil {
			return domain.Session{}, fmt.Errorf("read %s: %w", f.key, err)
		}
		*f.dst = v
	}
	guest, _, err := s.store.Get(ctx, KeyGuest)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read %s: %w", KeyGuest, err)
	}
	sess.Guest, _ = strconv.ParseBool(guest)
	return sess, nil
}

// Save persists every session field.
func (s *SessionContext) Save(ctx context.Context, sess domain.Session) error {
	values := [][2]string{
		{KeyToken, sess.Token},
		{KeyUserName, sess.UserName},
		{KeyUserEmail, sess.UserEmail},
		{KeyUserID, sess.UserID},
		{KeyGuest, strconv.FormatBool(sess.Guest)},
	}
	for _, kv := range values {
		if err := s.store.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("write %s: %w", kv[0], err)
		}
	}
	return nil
}

// SaveRoom stores the last room snapshot the user entered.
func (s *SessionContext) SaveRoom(ctx context.Context, room domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, KeyRoom, string(data))
}

// Room returns the stored room snapshot, if any.
func (s *SessionContext) Room(ctx context.Context) (domain.Room, bool, error) {
	raw, ok, err := s.store.Get(ctx, KeyRoom)
	if err != nil || !ok || raw == "" {
		return domain.Room{}, false, err
	}
	var room domain.Room
	if err := json.Unmarshal([]byte(raw), &room); err != nil {
		// A corrupt snapshot is as good as none.
		return domain.Room{}, false, nil
	}
	return room, true, nil
}

// ForgetRoom drops the room snapshot and keeps the identity.
func (s *SessionContext) ForgetRoom(ctx context.Context) error {
	return s.store.Set(ctx, KeyRoom, "")
}

// Clear removes everything.
func (s *SessionContext) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Authenticated reports whether the stored token routes to authenticated
// views. Store failures count as logged out.
func (s *SessionContext) Authenticated(ctx context.Context) bool {
	tok, _, err := s.store.Get(ctx, KeyToken)
	if err != nil {
		return false
	}
	return TokenUsable(tok)
}

// Token implements the transport token source.
func (s *SessionContext) Token(ctx context.Context) (string, error) {
	tok, _, err := s.store.Get(ctx, KeyToken)
	if err != nil {
		return "", err
	}
	if !TokenUsable(tok) {
		return "", domain.ErrNotAuthenticated
	}
	return tok, nil
}

// TokenUsable reports whether raw looks like an access token. The signature
// and expiry are the server's business; only the shape is checked here.
func TokenUsable(raw string) bool {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", "undefined", "null":
		return false
	}
	_, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	return err == nil
}
