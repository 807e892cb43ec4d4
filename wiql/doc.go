// Package wiql validates inputs destined for Work Item Query Language
// queries and work item field operations. Whitelist validators normalize
// case and reject anything outside a fixed allowed set, the query validator
// enforces structural rules before a query leaves the process, and string
// literals are escaped so user text can never terminate a quoted value.
package wiql
