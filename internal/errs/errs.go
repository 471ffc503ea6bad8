// Package errs defines the error shapes returned to API clients.
//
// Every failure that reaches the HTTP layer is expressed as an *HTTPError
// so clients always receive the same JSON structure: a machine-friendly
// code, a message, the status, and optional field-level validation errors.
package errs
