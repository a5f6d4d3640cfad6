// Package app wires the run together: it resolves settings, owns the logger,
// metrics and health check server, and drives one pass from source scanning
// through ordering to sequential execution and reporting. It is decoupled
// from any specific entrypoint like a CLI.
package app
