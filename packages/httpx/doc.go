// Package httpx provides the HTTP transport used by jcall.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts and redirect handling
//   - TLS validation and proxy options
//   - Default headers applied to every request
//   - A Response value carrying status, headers, body and duration
package httpx
