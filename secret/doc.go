// Package secret resolves credential references in configuration values
// so secrets never have to live in config files.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider)
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:BOARDBRIDGE_PAT
//   - File-backed: secretref:file:/run/secrets/pat
//   - Inline use:  Basic secretref:env:BOARDBRIDGE_PAT
package secret
