package http

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quizroom/internal/domain"
)

// Endpoint names of the quiz API.
const (
	EndpointLogin          = "login"
	EndpointAddUser        = "addUser"
	EndpointLogout         = "logout"
	EndpointJoinGuest      = "joinGuest"
	EndpointCreateRoom     = "createRoom"
	EndpointJoinRoom       = "joinRoom"
	EndpointRoom           = "room"
	EndpointLoadUsers      = "loadUsers"
	EndpointExitRoom       = "exitRoom"
	EndpointGameStatus     = "getGameStatus"
	EndpointGetQuestions   = "getQuestions"
	EndpointGetQuestion    = "getQuestion"
	EndpointSubmitAnswer   = "submitAnswer"
	EndpointTimeoutAnswer  = "timeoutAnswer"
	EndpointLeaderboard    = "leaderboard"
	EndpointAddQuestion    = "addQuestion"
	EndpointDeleteQuestion = "deleteQuestion"
	EndpointBanUser        = "banUser"
	EndpointDeleteRoom     = "deleteRoom"
	EndpointStartGame      = "startGame"
	EndpointEndGame        = "endGame"
)

// outOfRange is how the API reports a question number past the last one.
const outOfRange = "list index out of range"

type roomCodeBody struct {
	RoomCode string `json:"roomCode"`
}

type roomEmailBody struct {
	RoomCode string `json:"roomCode"`
	Email    string `json:"email"`
}

type roomResponse struct {
	Room domain.Room `json:"room"`
}

func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	var resp struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, EndpointLogin, authNone, body, &resp); err != nil {
		return domain.Session{}, err
	}
	if resp.AccessToken == "" {
		return domain.Session{}, fmt.Errorf("%s: %w: missing accessToken", EndpointLogin, domain.ErrWireSchema)
	}
	return domain.Session{
		Token:     resp.AccessToken,
		UserName:  resp.User.Name,
		UserEmail: resp.User.Email,
		UserID:    resp.User.ID,
	}, nil
}

func (c *Client) Signup(ctx context.Context, name, email, password string) error {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.post(ctx, EndpointAddUser, authNone, body, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, EndpointLogout, authRequired, struct{}{}, nil)
}

func (c *Client) JoinGuest(ctx context.Context, name, roomCode string) (domain.GuestJoin, error) {
	var resp struct {
		AccessToken string `json:"accessToken"`
		Room        struct {
			domain.Room
			Guest struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"guest"`
		} `json:"room"`
	}
	body := map[string]string{"name": name, "roomCode": roomCode}
	if err := c.post(ctx, EndpointJoinGuest, authNone, body, &resp); err != nil {
		return domain.GuestJoin{}, err
	}
	if resp.AccessToken == "" {
		return domain.GuestJoin{}, fmt.Errorf("%s: %w: missing accessToken", EndpointJoinGuest, domain.ErrWireSchema)
	}
	return domain.GuestJoin{
		Room:    resp.Room.Room,
		GuestID: resp.Room.Guest.ID,
		Name:    resp.Room.Guest.Name,
		Token:   resp.AccessToken,
	}, nil
}

func (c *Client) CreateRoom(ctx context.Context, name, userName, email string) (string, error) {
	var resp struct {
		Room struct {
			Code string `json:"code"`
		} `json:"room"`
	}
	body := map[string]string{"name": name, "userName": userName, "email": email}
	if err := c.post(ctx, EndpointCreateRoom, authRequired, body, &resp); err != nil {
		return "", err
	}
	if resp.Room.Code == "" {
		return "", fmt.Errorf("%s: %w: missing room code", EndpointCreateRoom, domain.ErrWireSchema)
	}
	return resp.Room.Code, nil
}

func (c *Client) JoinRoom(ctx context.Context, roomCode string, who domain.Session) (domain.Room, error) {
	var resp roomResponse
	body := map[string]string{
		"roomCode": roomCode,
		"name":     who.UserName,
		"email":    who.UserEmail,
		"userID":   who.UserID,
	}
	if err := c.post(ctx, EndpointJoinRoom, authRequired, body, &resp); err != nil {
		return domain.Room{}, err
	}
	return resp.Room, nil
}

func (c *Client) Room(ctx context.Context, roomCode, email string) (domain.Room, error) {
	var resp roomResponse
	if err := c.post(ctx, EndpointRoom, authOptional, roomEmailBody{RoomCode: roomCode, Email: email}, &resp); err != nil {
		return domain.Room{}, err
	}
	return resp.Room, nil
}

func (c *Client) LoadUsers(ctx context.Context, roomCode string) ([]domain.Member, error) {
	var resp struct {
		Users []domain.Member `json:"users"`
	}
	if err := c.post(ctx, EndpointLoadUsers, authOptional, roomCodeBody{RoomCode: roomCode}, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) ExitRoom(ctx context.Context, roomCode, email string) error {
	return c.post(ctx, EndpointExitRoom, authOptional, roomEmailBody{RoomCode: roomCode, Email: email}, nil)
}

func (c *Client) GameStatus(ctx context.Context, roomCode string) (domain.GameStatus, error) {
	var resp domain.GameStatus
	if err := c.post(ctx, EndpointGameStatus, authNone, roomCodeBody{RoomCode: roomCode}, &resp); err != nil {
		return domain.GameStatus{}, err
	}
	return resp, nil
}

func (c *Client) Questions(ctx context.Context, roomCode string) ([]domain.Question, error) {
	var resp struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := c.post(ctx, EndpointGetQuestions, authRequired, roomCodeBody{RoomCode: roomCode}, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

// Question fetches question number (1-based). Running past the end yields
// domain.ErrNoMoreQuestions.
func (c *Client) Question(ctx context.Context, roomCode string, number int) (domain.Question, error) {
	var resp struct {
		Question *domain.Question `json:"question"`
	}
	body := struct {
		RoomCode       string `json:"roomCode"`
		QuestionNumber int    `json:"questionNumber"`
	}{roomCode, number}
	if err := c.post(ctx, EndpointGetQuestion, authNone, body, &resp); err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && (strings.Contains(apiErr.Message, outOfRange) || errors.Is(err, domain.ErrNotFound)) {
			return domain.Question{}, fmt.Errorf("question %d: %w", number, domain.ErrNoMoreQuestions)
		}
		return domain.Question{}, err
	}
	if resp.Question == nil {
		return domain.Question{}, fmt.Errorf("question %d: %w", number, domain.ErrNoMoreQuestions)
	}
	return *resp.Question, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, submission domain.AnswerSubmission) (domain.AnswerOutcome, error) {
	var resp domain.AnswerOutcome
	if err := c.post(ctx, EndpointSubmitAnswer, authOptional, submission, &resp); err != nil {
		return domain.AnswerOutcome{}, err
	}
	return resp, nil
}

func (c *Client) TimeoutAnswer(ctx context.Context, roomCode, userID string, number int) error {
	body := struct {
		RoomCode       string `json:"roomCode"`
		UserID         string `json:"userID"`
		QuestionNumber int    `json:"questionNumber"`
	}{roomCode, userID, number}
	return c.post(ctx, EndpointTimeoutAnswer, authOptional, body, nil)
}

func (c *Client) Leaderboard(ctx context.Context, roomCode string) (domain.Leaderboard, error) {
	var resp domain.Leaderboard
	if err := c.post(ctx, EndpointLeaderboard, authNone, roomCodeBody{RoomCode: roomCode}, &resp); err != nil {
		return domain.Leaderboard{}, err
	}
	return resp, nil
}

func (c *Client) AddQuestion(ctx context.Context, roomCode string, q domain.Question) error {
	body := struct {
		RoomCode string         `json:"roomCode"`
		Question string         `json:"question"`
		Answers  domain.Answers `json:"answers"`
		Correct  string         `json:"correct"`
		Point    int            `json:"point"`
		Time     int            `json:"time"`
	}{roomCode, q.Question, q.Answers, q.Correct, q.Point, q.Time}
	return c.post(ctx, EndpointAddQuestion, authRequired, body, nil)
}

func (c *Client) DeleteQuestion(ctx context.Context, roomCode, questionID string) error {
	body := struct {
		RoomCode   string `json:"roomCode"`
		QuestionID string `json:"questionID"`
	}{roomCode, questionID}
	return c.post(ctx, EndpointDeleteQuestion, authRequired, body, nil)
}

func (c *Client) BanUser(ctx context.Context, roomCode, email string) error {
	return c.post(ctx, EndpointBanUser, authRequired, roomEmailBody{RoomCode: roomCode, Email: email}, nil)
}

func (c *Client) DeleteRoom(ctx context.Context, roomCode string) error {
	return c.post(ctx, EndpointDeleteRoom, authRequired, roomCodeBody{RoomCode: roomCode}, nil)
}

func (c *Client) StartGame(ctx context.Context, roomCode string) error {
	return c.post(ctx, EndpointStartGame, authRequired, roomCodeBody{RoomCode: roomCode}, nil)
}

func (c *Client) EndGame(ctx context.Context, roomCode string) error {
	return c.post(ctx, EndpointEndGame, authRequired, roomCodeBody{RoomCode: roomCode}, nil)
}
