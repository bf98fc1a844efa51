package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	RoomCodeLength        int `env:"ROOM_CODE_LENGTH" envDefault:"6"`
	ChannelBuffer         int `env:"CHANNEL_BUFFER" envDefault:"8"`
	WSWriteTimeoutSeconds int `env:"WS_WRITE_TIMEOUT_SECONDS" envDefault:"10"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
