package main

import (
	"net/http"
	"time"

	"parlor/internal/app/parlor"
	"parlor/internal/config"
	"parlor/internal/logging"
	httptransport "parlor/internal/transport/http"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	svc := parlor.NewService(cfg.Server.RoomCodeLength, cfg.Server.ChannelBuffer)
	r := httptransport.NewRouter(svc, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
