/*
Package clients provides Go clients for the proof store HTTP API.

ProofStoreClient implements interfaces.ProofStore, so code written against the
in-process store works unchanged against a remote server. KVClient implements
interfaces.Storage[ContentID, []byte] over the key/value endpoints.

Transport failures are reported as interfaces.ErrBackendUnavailable, and error
statuses are mapped back onto the interfaces sentinels with api.ErrorFromResponse,
so errors.Is and interfaces.IsRetryable work across the wire.
*/
package clients
