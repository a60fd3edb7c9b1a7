// Package apiclient talks to the quiz generation and answer validation service.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/verte-zerg/kewen/internal/model"
)

const (
	generatePath = "/api/quiz/generate"
	validatePath = "/api/quiz/validate"

	defaultTimeout = 30 * time.Second
)

// ErrorKind categorizes a failed request.
type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindServer     ErrorKind = "server"
	KindTimeout    ErrorKind = "timeout"
	KindNetwork    ErrorKind = "network"
)

// Error is a categorized request failure.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the error kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// Client is an HTTP client for the backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New returns a client for baseURL. A zero timeout uses the default.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	ChapterID    string             `json:"chapter_id"`
	BookID       string             `json:"book_id"`
	ExerciseType model.ExerciseKind `json:"exercise_type"`
	Count        int                `json:"count,omitempty"`
}

// GenerateQuiz asks the service for a new quiz.
func (c *Client) GenerateQuiz(ctx context.Context, req model.QuizRequest) (model.Quiz, error) {
	var quiz model.Quiz
	err := c.post(ctx, generatePath, generateRequest{
		ChapterID:    req.ChapterID,
		BookID:       req.BookID,
		ExerciseType: req.Kind,
		Count:        req.Count,
	}, &quiz)
	if err != nil {
		return model.Quiz{}, err
	}
	if quiz.ID == "" || len(quiz.Questions) == 0 {
		return model.Quiz{}, &Error{Kind: KindServer, Message: "empty quiz payload"}
	}
	for i := range quiz.Questions {
		if quiz.Questions[i].Kind == "" {
			quiz.Questions[i].Kind = req.Kind
		}
	}
	return quiz, nil
}

// CheckAnswer implements validator.Checker.
func (c *Client) CheckAnswer(ctx context.Context, req model.ValidationRequest) (model.Verdict, error) {
	var verdict model.Verdict
	if err := c.post(ctx, validatePath, req, &verdict); err != nil {
		return model.Verdict{}, err
	}
	return verdict, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer func() {
		// Best-effort close; the body has been consumed.
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindServer, Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	return &Error{Kind: KindNetwork, Message: "request failed", Err: err}
}

func statusError(status int, body []byte) error {
	msg := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	kind := KindServer
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		kind = KindValidation
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	return &Error{Kind: kind, Status: status, Message: msg}
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, s := range []string{payload.Error, payload.Message, payload.Detail} {
			if s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(body))
}
