package httptransport

import (
	"encoding/json"
	"net/http"
	"strings"

	"parlor/internal/app/parlor"
	"parlor/internal/game"

	"github.com/go-chi/chi/v5"
)

type RoomHandlers struct {
	svc *parlor.Service
}

func NewRoomHandlers(svc *parlor.Service) *RoomHandlers {
	return &RoomHandlers{svc: svc}
}

const maxChatLength = 1024

type playerRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

func (pr playerRequest) player() game.Player {
	name := pr.PlayerName
	if name == "" {
		name = pr.PlayerID
	}
	return game.Player{ID: pr.PlayerID, Name: name}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

func (h *RoomHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.PlayerID == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		metricRoomCreateTotal.Add(1)
		snap, err := h.svc.CreateRoom(req.player())
		if err != nil {
			metricRoomCreateErrors.Add(1)
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func (h *RoomHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.PlayerID == "" {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		snap, err := h.svc.JoinRoom(chi.URLParam(r, "room_id"), req.player())
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func (h *RoomHandlers) Leave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := h.svc.LeaveRoom(chi.URLParam(r, "room_id"), req.PlayerID); err != nil {
			WriteServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func (h *RoomHandlers) Chat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID string `json:"player_id"`
			Text     string `json:"text"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		text := strings.TrimSpace(req.Text)
		if text == "" || len(text) > maxChatLength {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if err := h.svc.Chat(chi.URLParam(r, "room_id"), req.PlayerID, text); err != nil {
			WriteServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

func (h *RoomHandlers) Start() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID string          `json:"player_id"`
			Game     json.RawMessage `json:"game"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		cfg, err := game.DecodeStart(req.Game)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		snap, err := h.svc.StartGame(chi.URLParam(r, "room_id"), req.PlayerID, cfg)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func (h *RoomHandlers) Move() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PlayerID string          `json:"player_id"`
			Move     json.RawMessage `json:"move"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		metricMoveSubmitTotal.Add(1)
		snap, err := h.svc.SubmitMove(chi.URLParam(r, "room_id"), req.PlayerID, req.Move)
		if err != nil {
			metricMoveSubmitErrors.Add(1)
			WriteServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func (h *RoomHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.svc.GetSnapshot(chi.URLParam(r, "room_id"))
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(snap)
	}
}

func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
