package ws

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"workforce-service/internal/auth"
	"workforce-service/internal/observability"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newConnID() string {
	return uuid.NewString()
}

// tokenFromRequest reads the bearer token from the header or the token query parameter.
func tokenFromRequest(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token == "" {
		if q := r.URL.Query().Get("token"); q != "" {
			token = "Bearer " + q
		}
	}
	return token
}

func validateToken(validator auth.TokenValidator, header string) (auth.Identity, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return validator.ValidateToken(parts[1])
	}
	return auth.Identity{}, fmt.Errorf("invalid token")
}

func wsRoutingKey(kind string) string {
	return "ws_events." + kind
}

func publishLifecycle(ctx context.Context, kind string, resourceID int, event string, info ConnInfo, reason string) {
	observability.IncWSEvent(kind, event)
	now := time.Now()
	envelope := observability.NewConnectionEnvelope(observability.ConnectionEvent{
		Kind:       kind,
		ResourceID: resourceID,
		Event:      event,
		ConnID:     info.ConnID,
		DurationMS: now.Sub(info.ConnectedAt).Milliseconds(),
		Reason:     reason,
	}, info.identity(), now)
	_ = observability.PublishEvent(ctx, wsRoutingKey(kind), envelope, observability.BuildHeaders(info.RequestID, info.TraceID))
}

// readUntilClosed drains the connection until the peer goes away and returns
// the close reason. Unexpected errors are reported as ws_error.
func readUntilClosed(ctx context.Context, conn *websocket.Conn, kind string, resourceID int, info ConnInfo) string {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			reason := err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishLifecycle(ctx, kind, resourceID, "ws_error", info, reason)
			}
			return reason
		}
	}
}
