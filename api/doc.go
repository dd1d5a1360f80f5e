/*
Package api holds the HTTP surface of the proof store.

Subpackages:

 1. proofhandler - proof set/get/verify endpoints
 2. kvhandler - generic key/value endpoints over opaque bytes
 3. clients - Go clients for both, the proof client implements interfaces.ProofStore

This package itself defines the server configuration, the JSON response types and
the mapping between error sentinels and HTTP status codes shared by handlers and
clients.

# Endpoints

	PUT    /api/proofs/{id}[?verify=true]   store a proof under id             204
	POST   /api/proofs[?verify=true]        store under its content address    201 {"id"}
	GET    /api/proofs/{id}[?verify=true]   fetch a proof                      200 / 404 / 422
	POST   /api/proofs/verify               check a proof                      200 {"valid"}

	PUT    /api/kv/{key}                    store raw bytes                    204
	POST   /api/kv                          store under sha256(body)           201 {"key"}
	GET    /api/kv/{key}                    fetch raw bytes                    200 / 404
	HEAD   /api/kv/{key}                    existence                          200 / 404
	DELETE /api/kv/{key}                    remove, absent keys succeed        204

Identifiers are 64 hex characters. Errors are returned as plain text with the
status chosen by StatusForError.
*/
package api
