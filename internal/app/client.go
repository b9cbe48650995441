package app

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"quizroom/internal/domain"
)

// QuizAPI is the REST boundary of the quiz backend. Implementations attach
// the bearer token themselves where an endpoint needs one.
type QuizAPI interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Signup(ctx context.Context, name, email, password string) error
	JoinGuest(ctx context.Context, name, roomCode string) (domain.GuestJoin, error)
	Logout(ctx context.Context) error

	CreateRoom(ctx context.Context, name, userName, email string) (string, error)
	JoinRoom(ctx context.Context, roomCode string, who domain.Session) (domain.Room, error)
	Room(ctx context.Context, roomCode, email string) (domain.Room, error)
	LoadUsers(ctx context.Context, roomCode string) ([]domain.Member, error)
	ExitRoom(ctx context.Context, roomCode, email string) error
	GameStatus(ctx context.Context, roomCode string) (domain.GameStatus, error)

	Questions(ctx context.Context, roomCode string) ([]domain.Question, error)
	Question(ctx context.Context, roomCode string, number int) (domain.Question, error)
	SubmitAnswer(ctx context.Context, submission domain.AnswerSubmission) (domain.AnswerOutcome, error)
	TimeoutAnswer(ctx context.Context, roomCode, userID string, number int) error
	Leaderboard(ctx context.Context, roomCode string) (domain.Leaderboard, error)

	AddQuestion(ctx context.Context, roomCode string, q domain.Question) error
	DeleteQuestion(ctx context.Context, roomCode, questionID string) error
	BanUser(ctx context.Context, roomCode, email string) error
	DeleteRoom(ctx context.Context, roomCode string) error
	StartGame(ctx context.Context, roomCode string) error
	EndGame(ctx context.Context, roomCode string) error
}

// StreamEvent is one pushed snapshot of a room slice.
type StreamEvent struct {
	Kind        string
	RoomCode    string
	UpdatedAt   time.Time
	Members     []domain.Member
	Status      domain.GameStatus
	Leaderboard domain.Leaderboard
}

// Stream event kinds.
const (
	EventMembers     = "members"
	EventGameStatus  = "gameStatus"
	EventLeaderboard = "leaderboard"
)

// StreamSource delivers pushed room updates. The channel closes when ctx
// ends or the connection drops.
type StreamSource interface {
	Subscribe(ctx context.Context, roomCode string) (<-chan StreamEvent, error)
}

var errStreamClosed = errors.New("stream closed")

// streamEnded tells apart an unmount (nil) from a dropped connection.
func streamEnded(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	return errStreamClosed
}

// Timing groups every interval and artificial delay the views use.
type Timing struct {
	RoomMembers       time.Duration
	GameStatus        time.Duration
	ManageMembers     time.Duration
	Leaderboard       time.Duration
	LeaderboardManage time.Duration

	ExitRedirect   time.Duration
	Reload         time.Duration
	DeleteRedirect time.Duration
	AnswerError    time.Duration
	Countdown      time.Duration
}

// DefaultTiming matches the cadence of the web client.
func DefaultTiming() Timing {
	return Timing{
		RoomMembers:       3 * time.Second,
		GameStatus:        3 * time.Second,
		ManageMembers:     3 * time.Second,
		Leaderboard:       6 * time.Second,
		LeaderboardManage: 3 * time.Second,
		ExitRedirect:      1500 * time.Millisecond,
		Reload:            1500 * time.Millisecond,
		DeleteRedirect:    1500 * time.Millisecond,
		AnswerError:       2 * time.Second,
		Countdown:         time.Second,
	}
}

// Client wires the API, the session and the UI callbacks shared by every view.
type Client struct {
	api      QuizAPI
	session  *SessionContext
	notifier Notifier
	clock    clockwork.Clock
	timing   Timing
	stream   StreamSource
}

// Option customises a Client.
type Option func(*Client)

func WithClock(clock clockwork.Clock) Option { return func(c *Client) { c.clock = clock } }

func WithTiming(t Timing) Option { return func(c *Client) { c.timing = t } }

// WithStream switches live views from polling to a push subscription.
func WithStream(s StreamSource) Option { return func(c *Client) { c.stream = s } }

func NewClient(api QuizAPI, session *SessionContext, notifier Notifier, opts ...Option) *Client {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	c := &Client{
		api:      api,
		session:  session,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		timing:   DefaultTiming(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the typed session accessor.
func (c *Client) Session() *SessionContext { return c.session }

// Notifier exposes the notifier views report through.
func (c *Client) Notifier() Notifier { return c.notifier }

// Gate returns a navigation gate over the client's session.
func (c *Client) Gate() *Gate { return NewGate(c.session) }

func (c *Client) poller(name string, interval time.Duration, failMsg string, fetch func(ctx context.Context) error) *Poller {
	return NewPoller(name, interval, c.clock, c.notifier, failMsg, fetch)
}
