// Package services implements the verb surface exposed to agents: work
// item reads and mutations, free-form queries, and sprint roll-ups. Each
// service instance is bound to one project. Inputs are validated before
// any remote call, and every remote call runs through the resilience
// chain; validation failures never enter the chain and are never retried.
package services
