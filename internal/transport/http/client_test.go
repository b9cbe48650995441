package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"quizroom/internal/domain"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) {
	if s == "" {
		return "", domain.ErrNotAuthenticated
	}
	return string(s), nil
}

// apiStub answers each endpoint with a canned body and records requests.
type apiStub struct {
	mu       sync.Mutex
	replies  map[string]stubReply
	requests map[string]capturedRequest
}

type stubReply struct {
	status int
	body   string
}

type capturedRequest struct {
	auth      string
	requestID string
	body      map[string]any
}

func newAPIStub(t *testing.T) (*apiStub, *httptest.Server) {
	t.Helper()
	stub := &apiStub{replies: make(map[string]stubReply), requests: make(map[string]capturedRequest)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := strings.TrimPrefix(r.URL.Path, "/")
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)

		stub.mu.Lock()
		stub.requests[endpoint] = capturedRequest{
			auth:      r.Header.Get("Authorization"),
			requestID: r.Header.Get("X-Request-ID"),
			body:      body,
		}
		reply, ok := stub.replies[endpoint]
		stub.mu.Unlock()

		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": true, "message": "no such endpoint"}`))
			return
		}
		if reply.status == 0 {
			reply.status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.status)
		_, _ = w.Write([]byte(reply.body))
	}))
	t.Cleanup(server.Close)
	return stub, server
}

func (s *apiStub) reply(endpoint string, status int, body string) {
	s.mu.Lock()
	s.replies[endpoint] = stubReply{status: status, body: body}
	s.mu.Unlock()
}

func (s *apiStub) request(endpoint string) (capturedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[endpoint]
	return r, ok
}

func TestLoginParsesSession(t *testing.T) {
	stub, server := newAPIStub(t)
	stub.reply(EndpointLogin, 200, `{"accessToken": "tok", "user": {"id": "u1", "name": "Ana", "email": "a@x.com"}}`)
	client := NewClient(server.URL, nil)

	sess, err := client.Login(context.Background(), "a@x.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token != "tok" || sess.UserID != "u1" || sess.UserEmail != "a@x.com" {
		t.Fatalf("unexpected session %+v", sess)
	}
	req, _ := stub.request(EndpointLogin)
	if req.auth != "" {
		t.Fatalf("login must not send a token, got %q", req.auth)
	}
	if req.requestID == "" {
		t.Fatalf("expected request id header")
	}
	if req.body["email"] != "a@x.com" || req.body["password"] != "pw" {
		t.Fatalf("unexpected body %v", req.body)
	}
}

func TestLoginWithoutTokenIsSchemaError(t *testing.T) {
	stub, server := newAPIStub(t)
	stub.reply(EndpointLogin, 200, `{"user": {"id": "u1"}}`)
	_, err := NewClient(server.URL, nil).Login(context.Background(), "a@x.com", "pw")
	if !errors.Is(err, domain.ErrWireSchema) {
		t.Fatalf("expected ErrWireSchema, got %v", err)
	}
}

func TestErrorEnvelopes(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
		is      error
	}{
		{"bool flag", 200, `{"error": true, "message": "Room not found"}`, "Room not found", nil},
		{"string error", 200, `{"error": "Room is full"}`, "Room is full", nil},
		{"http status", 404, `{"message": "missing"}`, "missing", domain.ErrNotFound},
		{"forbidden", 403, `{"error": true, "message": "You are banned"}`, "You are banned", domain.ErrForbidden},
		{"unauthorized", 401, `not json`, "", domain.ErrNotAuthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub, server := newAPIStub(t)
			stub.reply(EndpointRoom, tc.status, tc.body)
			_, err := NewClient(server.URL, staticTokens("tok")).Room(context.Background(), "R1", "a@x.com")

			var apiErr *domain.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Message != tc.message || apiErr.Endpoint != EndpointRoom {
				t.Fatalf("unexpected error %+v", apiErr)
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected %v, got %v", tc.is, err)
			}
		})
	}
}

func TestErrorFalseIsSuccess(t *testing.T) {
	stub, server := newAPIStub(t)
	stub.reply(EndpointGameStatus, 200, `{"error": false, "gameStarted": true}`)
	st, err := NewClient(server.URL, nil).GameStatus(context.Background(), "R1")
	if err != nil || !st.GameStarted {
		t.Fatalf("expected started, got %+v err=%v", st, err)
	}
}

func TestBearerTokenModes(t *testing.T) {
	stub, server := newAPIStub(t)
	stub.reply(EndpointStartGame, 200, `{"message": "ok"}`)
	stub.reply(EndpointLoadUsers, 200, `{"users": []}`)

	anon := NewClient(server.URL, staticTokens(""))
	if err := anon.StartGame(context.Background(), "R1"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, sent := stub.request(EndpointStartGame); sent {
		t.Fatalf("request without required token must not be sent")
	}
	// Optional endpoints go out without a token.
	if _, err := anon.LoadUsers(context.Background(), "R1"); err != nil {
		t.Fatalf("load users: %v", err)
	}

	authed := NewClient(server.URL, staticTokens("tok"), WithHeader("X-Client", "quizroom"))
	if err := authed.StartGame(context.Background(), "R1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	req, _ := stub.request(EndpointStartGame)
	if req.auth != "Bearer tok" || req.body["roomCode"] != "R1" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestQuestionPastTheEnd(t *testing.T) {
	stub, server := newAPIStub(t)
	client := NewClient(server.URL, nil)

	stub.reply(EndpointGetQuestion, 500, `{"error": "list index out of range"}`)
	if _, err := client.Question(context.Background(), "R1", 4); !errors.Is(err, domain.ErrNoMoreQuestions) {
		t.Fatalf("expected ErrNoMoreQuestions, got %v", err)
	}

	stub.reply(EndpointGetQuestion, 200, `{"question": null}`)
	if _, err := client.Question(context.Background(), "R1", 4); !errors.Is(err, domain.ErrNoMoreQuestions) {
		t.Fatalf("expected ErrNoMoreQuestions for null, got %v", err)
	}

	stub.reply(EndpointGetQuestion, 200, `{"question": {"id": "q1", "question": "2+2?", "answers": {"a": "3", "b": "4", "c": "5", "d": "6"}, "correct": "b", "point": 100, "time": 15}}`)
	q, err := client.Question(context.Background(), "R1", 1)
	if err != nil || q.Time != 15 || q.Answers.B != "4" {
		t.Fatalf("unexpected question %+v err=%v", q, err)
	}
	req, _ := stub.request(EndpointGetQuestion)
	if req.body["questionNumber"] != float64(1) {
		t.Fatalf("expected questionNumber 1, got %v", req.body["questionNumber"])
	}
}

func TestStringMembersAreRejected(t *testing.T) {
	stub, server := newAPIStub(t)
	stub.reply(EndpointLoadUsers, 200, `{"users": ["Ana", "Ben"]}`)
	_, err := NewClient(server.URL, nil).LoadUsers(context.Background(), "R1")
	if !errors.Is(err, domain.ErrWireSchema) {
		t.Fatalf("expected ErrWireSchema, got %v", err)
	}
}

func TestNonJSONSuccessIsSchemaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>Down for maintenance</body></html>"))
	}))
	t.Cleanup(server.Close)
	client := NewClient(server.URL, staticTokens("tok"))
	ctx := context.Background()

	if err := client.StartGame(ctx, "R1"); !errors.Is(err, domain.ErrWireSchema) {
		t.Fatalf("start game: expected ErrWireSchema, got %v", err)
	}
	if err := client.DeleteRoom(ctx, "R1"); !errors.Is(err, domain.ErrWireSchema) {
		t.Fatalf("delete room: expected ErrWireSchema, got %v", err)
	}
	if err := client.TimeoutAnswer(ctx, "R1", "u1", 2); !errors.Is(err, domain.ErrWireSchema) {
		t.Fatalf("timeout answer: expected ErrWireSchema, got %v", err)
	}
}

func TestEmptySuccessBodyIsAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	if err := NewClient(server.URL, staticTokens("tok")).EndGame(context.Background(), "R1"); err != nil {
		t.Fatalf("expected empty 200 to succeed, got %v", err)
	}
}

func TestJoinGuestWithoutTokenIsSchemaError(t *testing.T) {
	stub, server := newAPIStub(t)
	stub.reply(EndpointJoinGuest, 200, `{"room": {"code": "R1", "guest": {"id": "g1", "name": "Guest"}}}`)
	_, err := NewClient(server.URL, nil).JoinGuest(context.Background(), "Guest", "R1")
	if !errors.Is(err, domain.ErrWireSchema) {
		t.Fatalf("expected ErrWireSchema, got %v", err)
	}
}

func TestJoinGuestAndLeaderboard(t *testing.T) {
	stub, server := newAPIStub(t)
	stub.reply(EndpointJoinGuest, 200, `{"accessToken": "gtok", "room": {"code": "R1", "name": "Quiz", "owner": {"name": "Ana", "email": "a@x.com"}, "members": [], "guest": {"id": "g1", "name": "Guest"}}}`)
	stub.reply(EndpointLeaderboard, 200, `{"roomName": "Quiz", "owner": "a@x.com", "leaderboard": [{"id": "u2", "name": "Ben", "points": 5}, {"id": "u1", "name": "Ana", "points": 50}]}`)
	client := NewClient(server.URL, nil)

	joined, err := client.JoinGuest(context.Background(), "Guest", "R1")
	if err != nil {
		t.Fatalf("join guest: %v", err)
	}
	if joined.Token != "gtok" || joined.GuestID != "g1" || joined.Room.Code != "R1" || joined.Room.Owner.Email != "a@x.com" {
		t.Fatalf("unexpected join %+v", joined)
	}

	lb, err := client.Leaderboard(context.Background(), "R1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if lb.OwnerEmail != "a@x.com" || len(lb.Entries) != 2 || lb.Entries[0].ID != "u2" {
		t.Fatalf("expected server order kept, got %+v", lb)
	}
}

func TestSubmitAnswerBody(t *testing.T) {
	stub, server := newAPIStub(t)
	stub.reply(EndpointSubmitAnswer, 200, `{"message": "Correct answer!", "status": "end"}`)
	out, err := NewClient(server.URL, staticTokens("tok")).SubmitAnswer(context.Background(), domain.AnswerSubmission{
		RoomCode: "R1", UserID: "u1", QuestionNumber: 2, Answer: "c", Point: 100, TimeTaken: 3.5, Time: 20, Correct: "c",
	})
	if err != nil || out.Status != domain.StatusEnd {
		t.Fatalf("unexpected outcome %+v err=%v", out, err)
	}
	req, _ := stub.request(EndpointSubmitAnswer)
	if req.body["timeTaken"] != 3.5 || req.body["answer"] != "c" || req.auth != "Bearer tok" {
		t.Fatalf("unexpected request %+v", req)
	}
}
