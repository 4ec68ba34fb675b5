// Package logging provides structured, context-aware logging for scoutd.
//
// The package wraps zap with methods that take a context.Context first and
// automatically attach correlation fields carried by the context: the active
// OpenTelemetry trace/span IDs, the target collection, and the request ID.
//
// Construction:
//
//	logger, err := logging.New(logging.NewDefaultConfig())
//	if err != nil { ... }
//	defer logger.Sync()
//
// Request-scoped fields:
//
//	ctx = logging.WithCollection(ctx, "players")
//	logger.Info(ctx, "search started", zap.Int("initial_k", 20))
//
// Libraries receive a *Logger (or *zap.Logger via Underlying) in their
// constructors; there is no package-level global.
package logging
