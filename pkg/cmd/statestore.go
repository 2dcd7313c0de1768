package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/terminus-flow/terminus/pkg/statestore"
	"github.com/terminus-flow/terminus/pkg/statestore/memory"
	"github.com/terminus-flow/terminus/pkg/statestore/postgres"
	"github.com/terminus-flow/terminus/pkg/statestore/redis"
)

// NewStateStore builds a state store from a connection URL, selecting the
// implementation by scheme.
func NewStateStore(ctx context.Context, logger *slog.Logger, databaseURL string) (statestore.StateStore, error) {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return nil, fmt.Errorf("database URL %q has no scheme", databaseURL)
	}

	switch scheme {
	case "postgres", "postgresql":
		return postgres.NewStore(ctx, logger, databaseURL)
	case "redis", "rediss":
		return redis.NewStore(ctx, logger, databaseURL)
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported state store scheme %q", scheme)
	}
}
