package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/dataengine/internal/cli"
)

func main() {
	// Load .env file if it exists; real environment variables take precedence
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
