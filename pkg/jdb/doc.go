// Package jdb provides a client for jdb, a Raft-backed key-value store that
// exposes its operations over plain HTTP GET requests. The store understands
// five operations (get, put, delete, cas and append), each addressed as
// <endpoint>/<operation> with all arguments passed as query parameters and
// every response wrapped in a JSON envelope.
//
// The public API centres around the Client type. A Client is created with
// Connect (HTTP) or NewWithBackend (custom backends such as the bundled mock)
// and may be shared across goroutines; its only mutable state is an atomic
// request counter whose values tag every outgoing request for server-side
// tracing. The client is a faithful request/response mapper: it never retries,
// never reinterprets transport failures, and surfaces server-side errors as a
// small structured taxonomy (ErrMissingBody, DecodeError, RemoteError).
package jdb
