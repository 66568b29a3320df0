package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-service/internal/models"
)

func TestMutatingRequestCarriesCSRFAndBearer(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/csrf-token":
			fetches.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"csrf_token": "tok-1"})
		case "/notifications/mark-read":
			if cookie, err := r.Cookie(csrfCookie); assert.NoError(t, err) {
				assert.Equal(t, "tok-1", cookie.Value)
			}
			assert.Equal(t, "tok-1", r.Header.Get(csrfHeader))
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"success":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "abc")
	require.NoError(t, c.MarkNotificationRead(context.Background(), "n1"))
	require.NoError(t, c.MarkNotificationRead(context.Background(), "n2"))
	assert.Equal(t, int32(1), fetches.Load())
}

func TestCSRFMismatchRefetchesOnce(t *testing.T) {
	var fetches, posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/csrf-token":
			n := fetches.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]string{"csrf_token": map[int32]string{1: "stale", 2: "fresh"}[n]})
		case "/chats/3/read":
			posts.Add(1)
			if r.Header.Get(csrfHeader) != "fresh" {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"csrf token mismatch"}`))
				return
			}
			_, _ = w.Write([]byte(`{"success":true}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "abc")
	require.NoError(t, c.MarkChatRead(context.Background(), 3))
	assert.Equal(t, int32(2), fetches.Load())
	assert.Equal(t, int32(2), posts.Load())
}

func TestGetDoesNotFetchCSRF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEqual(t, "/csrf-token", r.URL.Path)
		_, _ = w.Write([]byte(`{"notifications":[{"id":"a","type":"generic","message":"m"}]}`))
	}))
	defer srv.Close()

	list, err := New(srv.URL, "abc").PendingNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
}

func TestErrorResponseMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"job card not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "abc").JobCardDetails(context.Background(), 42)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "job card not found", apiErr.Message)
}

func TestAssignFailureBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"employee unavailable"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "abc", WithTokenSource(StaticToken("t")))
	_, err := c.AssignJobCard(context.Background(), models.AssignmentRequest{JobCardID: 1, EmployeeID: 2, Priority: models.PriorityLow})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "employee unavailable", apiErr.Message)
}

func TestTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, "abc", WithTimeout(50*time.Millisecond))
	_, err := c.ListChats(context.Background())
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestDefaultTimeout(t *testing.T) {
	c := New("http://example.invalid", "abc")
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestWebSocketURL(t *testing.T) {
	u, err := New("https://ops.example.com/", "abc").WebSocketURL("/ws/notifications")
	require.NoError(t, err)
	assert.Equal(t, "wss://ops.example.com/ws/notifications?token=abc", u)

	u, err = New("http://localhost:8083", "t k").WebSocketURL("/ws/notifications")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8083/ws/notifications?token=t+k", u)
}
