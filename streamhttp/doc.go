// Package streamhttp implements the stateless request/response transport:
// each inbound POST carries exactly one envelope, is served by a fresh
// session and dispatcher built for that request alone, and the pairing is
// discarded after the response is flushed. No session id is ever issued and
// no state survives between requests, so any number of replicas can sit
// behind a load balancer with no coordination.
//
// Because handshake state cannot persist, a non-initialize request begins in
// the Ready state; initialize is still answered normally so standard clients
// work unchanged. The mandatory-handshake sequencing of the stream transport
// does not apply here.
//
// Content negotiation: a client that prefers "text/event-stream" receives
// the single response envelope framed as one SSE event; otherwise the
// response is a plain JSON body. The framing never changes the logical
// result.
//
// GET and DELETE on the endpoint are rejected with 405 (Allow: POST); there
// is no server-initiated push or session resumption. A GET /health endpoint,
// independent of the protocol, serves deployment liveness checks.
package streamhttp
