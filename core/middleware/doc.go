// Package middleware groups the HTTP middleware of the Fiber application.
//
//   - auth: API key validation (X-API-Key or Bearer token).
//   - rayid: assigns a request id, stores it in the context locals for
//     logger.WithRayID and echoes it in the X-Ray-ID response header.
//
// rayid is registered first so every log line of a request carries the id.
package middleware
