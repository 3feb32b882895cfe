package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/sitebaker/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebaker/internal/logfields"
)

// envFiles are loaded in order; variables already present in the process
// environment are never overwritten.
var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads every existing env file. A missing file is not an error,
// a malformed one is.
func loadEnvFile() error {
	for _, envPath := range envFiles {
		if _, err := os.Stat(envPath); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return ferrors.ConfigError("failed to load env file").
				WithCause(err).WithContext("path", envPath).Build()
		}
		slog.Debug("Loaded environment variables", logfields.Path(envPath))
	}
	return nil
}
