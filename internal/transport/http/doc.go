// Package http contains the REST handlers for the reduction service:
// health and version, recording listing, reduction lifecycle, export
// downloads and the websocket upgrade endpoint.
package http
