package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ServerTokenSource fetches a CSRF token from GET /csrf-token and reuses it
// until invalidated.
type ServerTokenSource struct {
	client *Client
	mu     sync.Mutex
	token  string
}

func (s *ServerTokenSource) CSRFToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}

	var resp struct {
		Token string `json:"csrf_token"`
	}
	if err := s.client.send(ctx, http.MethodGet, "/csrf-token", nil, &resp); err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("empty csrf token")
	}
	s.token = resp.Token
	return s.token, nil
}

// Invalidate drops the cached token so the next mutating request fetches a new one.
func (s *ServerTokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// StaticToken is a fixed CSRF token.
type StaticToken string

func (t StaticToken) CSRFToken(context.Context) (string, error) {
	return string(t), nil
}
