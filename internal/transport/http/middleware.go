package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"parlor/internal/game"
	"parlor/internal/logging"
	"parlor/internal/room"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
)

func APILogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}

func WriteHTTPError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}

// WriteServiceError maps service errors onto statuses. The sentinel message
// is the wire code, so clients see the same snake_case taxonomy the services
// use internally.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrPlayerNotFound),
		errors.Is(err, room.ErrPlayerNotInRoom),
		errors.Is(err, game.ErrPlayerNotFound):
		WriteHTTPError(w, http.StatusNotFound, rootCode(err))
	case errors.Is(err, game.ErrGameRunning),
		errors.Is(err, game.ErrGameNotRunning),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, room.ErrRoomExists),
		errors.Is(err, room.ErrCannotCreate):
		WriteHTTPError(w, http.StatusConflict, rootCode(err))
	case errors.Is(err, game.ErrInvalidMove),
		errors.Is(err, game.ErrUnknownVariant):
		WriteHTTPError(w, http.StatusBadRequest, rootCode(err))
	default:
		WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
	}
}

// rootCode unwraps to the sentinel so wrapped detail ("invalid_move: number
// 7 already called") does not leak formatting into the error field.
func rootCode(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
