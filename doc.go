// Package auth implements a stateless bearer-token authentication service:
// JWT issuance and verification, credential management over a Bun-backed user
// store, and fiber HTTP handlers.
//
// Token lifecycle:
//   - TokenService signs HS256 tokens carrying only subject, issued-at, and
//     expiry. Verification needs nothing but the signing secret, so any
//     replica can validate a token without shared session state.
//   - SubjectOf decodes and checks the signature without enforcing expiry;
//     Validate is the single authority for "usable right now": signature,
//     expiry, and an exact subject match.
//
// Credential flow:
//   - Authenticator wires registration, login, and logout around the token
//     lifecycle. Registration runs its uniqueness checks and insert in one
//     transaction; storage-level unique constraints catch whatever slips past
//     them under concurrency.
//   - Logout is an acknowledgment only. There is no revocation store, so
//     issued tokens stay valid until natural expiry.
//
// Request authentication:
//   - middleware/jwtware resolves bearer tokens into request identities and
//     always degrades to anonymous on failure; route-level guards decide what
//     anonymity may reach.
package auth
