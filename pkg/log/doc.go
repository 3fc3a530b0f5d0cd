/*
Package log provides structured logging for docklord using zerolog.

A single global Logger is configured once via Init and shared across the
Coordinator and Node processes. Component loggers (WithComponent,
WithNodeID, WithRequestID) attach context fields without requiring every
call site to repeat them.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	sessionLog := log.WithNodeID(nodeID)
	sessionLog.Info().Msg("node authenticated")
*/
package log
