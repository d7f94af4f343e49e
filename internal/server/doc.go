// Package server exposes a query session over a small JSON HTTP API.
//
// One session is shared by all clients: POST /api/query loads a new result set
// and the /api/page endpoints move through it.
package server
