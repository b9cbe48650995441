package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"quizroom/internal/app"
	"quizroom/internal/domain"
	"quizroom/internal/infra/memory"
)

var errServer = errors.New("server exploded")

// fakeAPI is an in-memory QuizAPI recording every call.
type fakeAPI struct {
	mu sync.Mutex

	calls map[string]int

	loginSession domain.Session
	guest        domain.GuestJoin
	room         domain.Room
	users        []domain.Member
	status       domain.GameStatus
	questions    []domain.Question
	board        domain.Leaderboard

	question func(n int) (domain.Question, error)
	outcome  domain.AnswerOutcome

	failures map[string]error

	submissions []domain.AnswerSubmission
	timeouts    []int
	added       []domain.Question
	banned      []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int), failures: make(map[string]error)}
}

func (f *fakeAPI) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.failures[name]
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) fail(name string, err error) {
	f.mu.Lock()
	f.failures[name] = err
	f.mu.Unlock()
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (domain.Session, error) {
	if err := f.record("login"); err != nil {
		return domain.Session{}, err
	}
	return f.loginSession, nil
}

func (f *fakeAPI) Signup(ctx context.Context, name, email, password string) error {
	return f.record("addUser")
}

func (f *fakeAPI) JoinGuest(ctx context.Context, name, roomCode string) (domain.GuestJoin, error) {
	if err := f.record("joinGuest"); err != nil {
		return domain.GuestJoin{}, err
	}
	return f.guest, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error { return f.record("logout") }

func (f *fakeAPI) CreateRoom(ctx context.Context, name, userName, email string) (string, error) {
	if err := f.record("createRoom"); err != nil {
		return "", err
	}
	return "NEW1", nil
}

func (f *fakeAPI) JoinRoom(ctx context.Context, roomCode string, who domain.Session) (domain.Room, error) {
	if err := f.record("joinRoom"); err != nil {
		return domain.Room{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.room, nil
}

func (f *fakeAPI) Room(ctx context.Context, roomCode, email string) (domain.Room, error) {
	if err := f.record("room"); err != nil {
		return domain.Room{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.room, nil
}

func (f *fakeAPI) LoadUsers(ctx context.Context, roomCode string) ([]domain.Member, error) {
	if err := f.record("loadUsers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Member(nil), f.users...), nil
}

func (f *fakeAPI) ExitRoom(ctx context.Context, roomCode, email string) error {
	return f.record("exitRoom")
}

func (f *fakeAPI) GameStatus(ctx context.Context, roomCode string) (domain.GameStatus, error) {
	if err := f.record("getGameStatus"); err != nil {
		return domain.GameStatus{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeAPI) Questions(ctx context.Context, roomCode string) ([]domain.Question, error) {
	if err := f.record("getQuestions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Question(nil), f.questions...), nil
}

func (f *fakeAPI) Question(ctx context.Context, roomCode string, number int) (domain.Question, error) {
	if err := f.record("getQuestion"); err != nil {
		return domain.Question{}, err
	}
	return f.question(number)
}

func (f *fakeAPI) SubmitAnswer(ctx context.Context, s domain.AnswerSubmission) (domain.AnswerOutcome, error) {
	if err := f.record("submitAnswer"); err != nil {
		return domain.AnswerOutcome{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submissions = append(f.submissions, s)
	return f.outcome, nil
}

func (f *fakeAPI) TimeoutAnswer(ctx context.Context, roomCode, userID string, number int) error {
	err := f.record("timeoutAnswer")
	f.mu.Lock()
	f.timeouts = append(f.timeouts, number)
	f.mu.Unlock()
	return err
}

func (f *fakeAPI) Leaderboard(ctx context.Context, roomCode string) (domain.Leaderboard, error) {
	if err := f.record("leaderboard"); err != nil {
		return domain.Leaderboard{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.board, nil
}

func (f *fakeAPI) AddQuestion(ctx context.Context, roomCode string, q domain.Question) error {
	if err := f.record("addQuestion"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, q)
	f.questions = append(f.questions, q)
	return nil
}

func (f *fakeAPI) DeleteQuestion(ctx context.Context, roomCode, questionID string) error {
	return f.record("deleteQuestion")
}

func (f *fakeAPI) BanUser(ctx context.Context, roomCode, email string) error {
	if err := f.record("banUser"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banned = append(f.banned, email)
	return nil
}

func (f *fakeAPI) DeleteRoom(ctx context.Context, roomCode string) error {
	return f.record("deleteRoom")
}

func (f *fakeAPI) StartGame(ctx context.Context, roomCode string) error {
	return f.record("startGame")
}

func (f *fakeAPI) EndGame(ctx context.Context, roomCode string) error {
	return f.record("endGame")
}

// recorder collects toasts.
type recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	r.successes = append(r.successes, msg)
	r.mu.Unlock()
}

func (r *recorder) Error(msg string) {
	r.mu.Lock()
	r.errors = append(r.errors, msg)
	r.mu.Unlock()
}

func (r *recorder) sawError(msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.errors {
		if m == msg {
			return true
		}
	}
	return false
}

func (r *recorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

// navLog records navigations and signals each one.
type navLog struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newNavLog() *navLog { return &navLog{ch: make(chan string, 16)} }

func (n *navLog) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
	n.ch <- path
}

func (n *navLog) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func (n *navLog) wait(t *testing.T) string {
	t.Helper()
	select {
	case p := <-n.ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for navigation")
		return ""
	}
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

type harness struct {
	api     *fakeAPI
	clock   *clockwork.FakeClock
	notes   *recorder
	session *app.SessionContext
	client  *app.Client
	nav     *navLog
	ctx     context.Context
	cancel  context.CancelFunc
}

// newHarness builds a client with a fake clock and no artificial delays.
func newHarness(t *testing.T, timing app.Timing) *harness {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	h := &harness{
		api:     newFakeAPI(),
		clock:   clockwork.NewFakeClock(),
		notes:   &recorder{},
		session: app.NewSessionContext(memory.NewSessionStore()),
		nav:     newNavLog(),
		ctx:     ctx,
		cancel:  cancel,
	}
	h.client = app.NewClient(h.api, h.session, h.notes, app.WithClock(h.clock), app.WithTiming(timing))
	return h
}

func (h *harness) login(t *testing.T, name, email, id string) {
	t.Helper()
	err := h.session.Save(h.ctx, domain.Session{
		Token:     signedToken(t, id),
		UserName:  name,
		UserEmail: email,
		UserID:    id,
	})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
}

func ownedRoom(code, ownerEmail string) domain.Room {
	return domain.Room{
		Code:  code,
		Name:  "Friday quiz",
		Owner: domain.Owner{Name: "Ana", Email: ownerEmail},
		Members: []domain.Member{
			{ID: "u1", Name: "Ana", Email: ownerEmail},
			{ID: "u2", Name: "Ben", Email: "ben@x.com"},
		},
	}
}

func validQuestion(text string) domain.Question {
	return domain.Question{
		Question: text,
		Answers:  domain.Answers{A: "one", B: "two", C: "three", D: "four"},
		Correct:  "b",
		Point:    100,
		Time:     10,
	}
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
