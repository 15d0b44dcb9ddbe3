// Package webhook exposes the inbound HTTP endpoint for platform events.
//
// The server owns the transport concerns only: it reads the literal request
// body (size-capped), pulls the signature/event/delivery headers, and hands
// the raw bytes to the authentication pipeline. It never parses or
// re-encodes the body itself — the pipeline verifies the signature against
// the exact bytes received.
//
// # Security Model
//
// - HMAC signatures verified downstream with constant-time comparison
// - Body size limits enforced to prevent DoS
// - No signature or credential details leaked in error responses
// - Request logging excludes payload bodies and secrets
//
// # Request Flow
//
//  1. HTTP POST arrives at the configured path (default /event_handler)
//  2. Body size checked (413 if too large)
//  3. X-Hub-Signature-256 (or legacy X-Hub-Signature) extracted
//  4. Pipeline runs: verify → parse → app auth → installation auth → dispatch
//  5. 200 "ok" returned, whether or not a handler matched
//
// # Error Responses
//
// - 401 Unauthorized: signature missing or mismatched (no details)
// - 400 Bad Request: body isn't valid JSON
// - 502 Bad Gateway: installation token exchange rejected or unreachable
// - 500 Internal Server Error: credential or handler failure
// - 413 Payload Too Large: body exceeds max_body_size
package webhook
