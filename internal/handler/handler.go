// Package handler is the first layer after the router.
//
// It binds and validates requests through the validation package,
// calls the matching service and writes the response. The generic
// Handle pipeline adds logging and tracing to every endpoint.
package handler
