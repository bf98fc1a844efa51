package httptransport

import (
	"net/http"
	"time"

	"parlor/internal/app/parlor"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// SubscribeHandler upgrades the connection and streams room events over it.
// The subscription is created first so a bad room or player id fails as a
// plain HTTP error before the upgrade. Once upgraded, the write loop drains
// the subscription channel and the read loop exists only to notice the peer
// going away; either side ending runs the finalizer exactly once.
type SubscribeHandler struct {
	svc          *parlor.Service
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

func NewSubscribeHandler(svc *parlor.Service, writeTimeout time.Duration) *SubscribeHandler {
	return &SubscribeHandler{
		svc:          svc,
		upgrader:     websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		writeTimeout: writeTimeout,
	}
}

func (h *SubscribeHandler) Handle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "room_id")
		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		sub, err := h.svc.Subscribe(roomID, playerID)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			sub.Close()
			return
		}
		metricWSConnectionsTotal.Add(1)
		metricWSConnectionsActive.Add(1)

		go h.writeLoop(conn, sub)
		h.readLoop(conn, sub)
	}
}

func (h *SubscribeHandler) writeLoop(conn *websocket.Conn, sub *parlor.Subscription) {
	for ev := range sub.Events() {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Str("subscription", sub.ID).Msg("event write failed")
			sub.Close()
			break
		}
	}
	// Channel closed by the finalizer. Closing the socket unblocks the read
	// loop in case the peer is still there.
	_ = conn.Close()
}

func (h *SubscribeHandler) readLoop(conn *websocket.Conn, sub *parlor.Subscription) {
	defer func() {
		metricWSConnectionsActive.Add(-1)
		sub.Close()
		_ = conn.Close()
	}()
	// Inbound frames carry no meaning on this socket; all mutations go over
	// the HTTP endpoints. Reading just detects disconnection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
