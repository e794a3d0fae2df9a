// Package handler implements the public HTTP entry point of the site. It
// dispatches the contact endpoint, its CORS preflight and everything else to
// the static file server, and records an access log line and metrics for
// every request.
package handler
