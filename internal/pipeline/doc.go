// Package pipeline runs the per-request authentication sequence for inbound
// webhooks.
//
// Every request walks the same strict sequence, no branching back:
//
//	Received → SignatureChecked → PayloadParsed → AppAuthenticated →
//	InstallationAuthenticated → Dispatched → Acknowledged
//
// Each stage fails closed: an error halts the pipeline before dispatch and
// no partial dispatch occurs. There is no rollback and no cross-request
// state beyond the immutable app credentials — each request mints its own
// assertion and exchanges for its own installation token, so concurrent
// requests share no mutable objects.
//
// Error taxonomy (checked with errors.Is / errors.As):
//   - signature.ErrVerificationFailed — untrusted sender, respond 401
//   - event.ErrMalformedPayload — body isn't valid JSON, no handler runs
//   - githubapp.ErrCredential — local signing/config failure, startup-fatal
//   - githubapp.ErrAuthentication — remote rejected the assertion/installation
//   - githubapp.ErrTransient — network/timeout/5xx during token exchange
//   - *event.HandlerError — business logic failed after successful auth
//
// The token exchange is the only blocking network call; it is bounded by the
// exchanger's timeout and by the request context, so a client disconnect
// cancels an in-flight exchange. Transient exchange failures are retried at
// most once, and only when explicitly enabled — retry is a deliberate,
// configurable decision, not a built-in.
package pipeline
