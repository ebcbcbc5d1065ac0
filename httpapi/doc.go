// Package httpapi exposes the authentication engine as a JSON HTTP API:
// login, logout, refresh, and the current-user endpoint, wrapped in the
// rate-limit and authentication middleware.
package httpapi
