package ws

import (
	"net/http"
	"time"

	"workforce-service/internal/observability"
)

// ConnInfo identifies one websocket connection for lifecycle events.
type ConnInfo struct {
	observability.ClientInfo
	ConnID      string
	UserID      int
	TraceID     string
	ConnectedAt time.Time
}

func connInfoFromRequest(r *http.Request, userID int, traceID string) ConnInfo {
	return ConnInfo{
		ClientInfo:  observability.ClientInfoFromRequest(r),
		ConnID:      newConnID(),
		UserID:      userID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
}

func (c ConnInfo) identity() observability.Identity {
	return observability.Identity{UserID: c.UserID, DeviceID: c.DeviceID, IP: c.IP}
}
