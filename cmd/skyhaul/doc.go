// Package main hosts the Skyhaul CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into catalog
// searches, order submissions, status polls, artifact deliveries, and
// configuration scaffolding. Configuration resolution, the order store,
// the catalog client, and structured logging are constructed lazily in a
// shared command context so subcommands stay declarative; behavior lives
// in the internal packages and is only surfaced here.
package main
