// Package logging builds the zerolog loggers used across sagequery.
//
// Loggers are configured from config.LoggingConfig, tagged per component with
// ComponentLogger and carried through context.Context. Every command gets a trace
// ID (a ULID) that is stamped on each event logged with Ctx(ctx), so the log lines
// of one query execution can be grepped together.
package logging
