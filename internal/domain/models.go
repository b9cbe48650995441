package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// GuestEmail is the address the API assigns to every guest participant.
const GuestEmail = "guest@app.com"

// Session is the client's durable identity: what the API handed back on
// login, signup or guest-join.
type Session struct {
	Token     string `json:"token" yaml:"token"`
	UserName  string `json:"userName" yaml:"userName"`
	UserEmail string `json:"userEmail" yaml:"userEmail"`
	UserID    string `json:"userID" yaml:"userID"`
	Guest     bool   `json:"guest" yaml:"guest"`
}

// Owner identifies the account that created a room.
type Owner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Member is a participant listed in a room.
type Member struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON only accepts the object form. Bare-string members are a
// server-side contract violation.
func (m *Member) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		return fmt.Errorf("%w: member must be an object, got %s", ErrWireSchema, truncate(trimmed, 32))
	}
	type plain Member
	var decoded plain
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	*m = Member(decoded)
	return nil
}

// Room mirrors the server's room document as seen by a member.
type Room struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Owner       Owner    `json:"owner"`
	Members     []Member `json:"members"`
	GameStarted bool     `json:"gameStarted"`
}

// OwnedBy reports whether email identifies the room owner. Owners are matched
// by email only.
func (r Room) OwnedBy(email string) bool {
	return SameEmail(r.Owner.Email, email)
}

// SameEmail compares two addresses ignoring case and surrounding space.
// Empty addresses never match.
func SameEmail(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return a != "" && a == b
}

// Answers holds the four choices of a multiple-choice question.
type Answers struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// Get returns the text for choice key ("a".."d").
func (a Answers) Get(key string) (string, bool) {
	switch key {
	case "a":
		return a.A, true
	case "b":
		return a.B, true
	case "c":
		return a.C, true
	case "d":
		return a.D, true
	}
	return "", false
}

// AnswerKeys lists the valid choice keys in display order.
var AnswerKeys = []string{"a", "b", "c", "d"}

// Question is a timed multiple-choice question owned by a room.
type Question struct {
	ID       string  `json:"id,omitempty"`
	Question string  `json:"question"`
	Answers  Answers `json:"answers"`
	Correct  string  `json:"correct"`
	Point    int     `json:"point"`
	Time     int     `json:"time"` // seconds
}

// Validate applies the local checks done before a question is sent.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: question text is required", ErrValidation)
	}
	for _, key := range AnswerKeys {
		if text, _ := q.Answers.Get(key); strings.TrimSpace(text) == "" {
			return fmt.Errorf("%w: answer %s is required", ErrValidation, key)
		}
	}
	if _, ok := q.Answers.Get(q.Correct); !ok {
		return fmt.Errorf("%w: correct answer must be one of a, b, c, d", ErrValidation)
	}
	if q.Point <= 0 {
		return fmt.Errorf("%w: point must be positive", ErrValidation)
	}
	if q.Time <= 0 {
		return fmt.Errorf("%w: time must be positive", ErrValidation)
	}
	return nil
}

// LeaderboardEntry is one ranked member. Rank is the position in the
// server's list.
type LeaderboardEntry struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	TrueAnswers  int    `json:"trueAnswers"`
	FalseAnswers int    `json:"falseAnswers"`
	Points       int    `json:"points"`
}

// Leaderboard is the server-ordered standings for a room.
type Leaderboard struct {
	RoomName   string             `json:"roomName"`
	OwnerEmail string             `json:"owner"`
	Entries    []LeaderboardEntry `json:"leaderboard"`
}

// RankOf returns the 1-based position of userID, or 0 when absent.
func (l Leaderboard) RankOf(userID string) (int, LeaderboardEntry) {
	if userID == "" {
		return 0, LeaderboardEntry{}
	}
	for i, entry := range l.Entries {
		if entry.ID == userID {
			return i + 1, entry
		}
	}
	return 0, LeaderboardEntry{}
}

// GameStatus is the polled start flag of a room.
type GameStatus struct {
	GameStarted bool `json:"gameStarted"`
}

// SubmitStatus tells the client where to go after an answer.
type SubmitStatus string

const (
	StatusNext SubmitStatus = "next"
	StatusEnd  SubmitStatus = "end"
)

// AnswerSubmission is the body of submitAnswer.
type AnswerSubmission struct {
	RoomCode       string  `json:"roomCode"`
	UserID         string  `json:"userID"`
	QuestionNumber int     `json:"questionNumber"`
	Answer         string  `json:"answer"`
	Point          int     `json:"point"`
	TimeTaken      float64 `json:"timeTaken"`
	Time           int     `json:"time"`
	Correct        string  `json:"correct"`
}

// AnswerOutcome is the server verdict on a submission.
type AnswerOutcome struct {
	Message string       `json:"message"`
	Status  SubmitStatus `json:"status"`
}

// GuestJoin is what joinGuest hands back.
type GuestJoin struct {
	Room    Room   `json:"room"`
	GuestID string `json:"guestId"`
	Name    string `json:"name"`
	Token   string `json:"accessToken"`
}

// QuestionSet is a named bundle of questions that can be imported into a room.
type QuestionSet struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
