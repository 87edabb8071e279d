// Package main provides the entry point of rbacd, the branch scoped authorization service
// of the school management system. It resolves staff permissions per branch from the
// legacy single role model and RBAC role assignments, guards the HTTP API, and reconciles
// the two role models through a CLI and a background worker.
package main
