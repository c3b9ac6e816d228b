package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/relnotes/internal/app"
)

func main() {
	setupLogging(false, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("run failed")
	}
	os.Exit(exitCode(err))
}

// exitCode maps run errors to the process exit status:
//
//	0 success
//	1 fatal (reference table, document, block mismatch, config, store)
//	2 unresolved or duplicate country codes, nothing persisted
//	3 some upserts failed
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrUnresolvedCountries):
		return 2
	case errors.Is(err, app.ErrPartialUpload):
		return 3
	default:
		return 1
	}
}
