package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"parlor/internal/app/parlor"
	"parlor/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(svc *parlor.Service, cfg config.ServerConfig) *chi.Mux {
	roomHandlers := NewRoomHandlers(svc)
	subscribeHandler := NewSubscribeHandler(svc, time.Duration(cfg.WSWriteTimeoutSeconds)*time.Second)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", HealthHandler())
	r.With(APILogMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/rooms", roomHandlers.Create())
		r.Route("/rooms/{room_id}", func(r chi.Router) {
			r.Get("/", roomHandlers.Get())
			r.Post("/join", roomHandlers.Join())
			r.Post("/leave", roomHandlers.Leave())
			r.Post("/chat", roomHandlers.Chat())
			r.Post("/start", roomHandlers.Start())
			r.Post("/move", roomHandlers.Move())
		})
	})

	// The upgrade handshake and the long-lived socket do not fit the request
	// logger; connection lifecycle is logged by the subscription itself.
	r.Get("/api/rooms/{room_id}/subscribe", subscribeHandler.Handle())

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
