// Package health runs liveness checks over the bridge's moving parts:
// process memory, the shared cache, and credential acquisition. Checks
// are aggregated into a single status an agent can read through one
// tool call.
package health
