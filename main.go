package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/akashicode/pdfworker/cmd"
	"github.com/akashicode/pdfworker/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log := logger.WithComponent("main")
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cmd.Execute()
}
