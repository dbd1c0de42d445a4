package resolver

import (
	"os"
	"reflect"

	"github.com/rs/zerolog"
)

// Logger is the package-level diagnostics logger for formatter-cache
// events: first build of a type's formatter, and cache poisoning on a
// failed first build. It is never consulted on the read/write hot path
// itself, only at the cache's construction seam.
var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "elemjson.resolver").Logger()
}

func logFirstBuildOK(t reflect.Type) {
	Logger.Debug().Str("type", t.String()).Msg("formatter built")
}

func logFirstBuildError(t reflect.Type, err error) {
	Logger.Error().Str("type", t.String()).Err(err).Msg("formatter cache entry poisoned")
}
