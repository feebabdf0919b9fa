package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the logger shared by the api and repricer binaries: JSON
// lines on stdout, switched to a console writer when APP_ENV marks a dev box.
func NewLogger(env string) zerolog.Logger {
	out := zerolog.New(os.Stdout)
	if env == "dev" || env == "development" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return out.With().Timestamp().Logger()
}
