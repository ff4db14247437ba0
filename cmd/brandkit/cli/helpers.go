package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/brandkit/brandkit/internal/cache"
	"github.com/brandkit/brandkit/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// BRANDKIT_DATA_DIR env var, or ~/.brandkit as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("BRANDKIT_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".brandkit")
}

// openStore opens the SQLite store under the resolved data directory.
func openStore() (*store.Store, error) {
	return store.New(resolveDataDir())
}

// openCache opens the cache directory under the resolved data directory.
func openCache(logger *slog.Logger) (*cache.Cache, error) {
	return cache.New(filepath.Join(resolveDataDir(), "cache"), logger)
}

// newLogger builds a slog logger per the configured level; CLI errors still
// go to stderr via cobra.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose || viper.GetString("logging.level") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// quietLogger is used by one-shot commands where structured logs would only
// pollute the output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// jwtSecret resolves the session signing secret from config.
func jwtSecret() string {
	secret := viper.GetString("auth.jwt_secret")
	if secret == "" {
		secret = "brandkit-dev-secret-change-me"
	}
	return secret
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
