package main

import (
	"os"

	"gacha_backend/internal/app"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := app.NewApp().Run(); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
