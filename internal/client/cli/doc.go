// Package cli is the interactive terminal surface of the ReadyInterview
// client: a small REPL for signing in, inspecting the session, and
// editing profile and preference values. It exists mainly as a reference
// consumer of the SDK packages.
package cli
