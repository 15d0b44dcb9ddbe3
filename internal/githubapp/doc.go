// Package githubapp authenticates as a GitHub App.
//
// The flow has two legs. First the app proves its own identity by minting a
// short-lived JWT signed with its private key (Issuer). Second it trades
// that assertion for an access token scoped to a single installation of the
// app (Exchanger). The installation token is what handlers use to call the
// GitHub API on the installation's behalf.
//
// Credentials are loaded once at startup and are immutable for the process
// lifetime. The private key and webhook secret are secrets and are never
// logged. Assertions and installation tokens are minted fresh per request
// and never persisted; there is deliberately no cross-request token cache.
package githubapp
