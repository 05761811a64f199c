package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first readable .env file. Existing process variables
// are not overwritten.
func loadEnvFile() {
	for _, p := range envFiles {
		if err := godotenv.Load(p); err == nil {
			slog.Debug("Loaded environment variables", slog.String("file", p))
			return
		}
	}
}
