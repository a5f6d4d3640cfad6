// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags into an app.Config; values left unset here may still
// come from the settings file named by -config.
package cli
