// Package ado talks to the Azure DevOps REST API and owns the error
// taxonomy for the bridge: every transport failure is normalized into a
// Signal at the client boundary and classified into a fixed set of kinds,
// each tagged retryable or not.
package ado
