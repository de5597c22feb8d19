// Package portal implements the authentication and access-linking core of a
// patient/content portal backend.
//
// Token issuance:
//   - TokenIssuer signs short-lived access tokens and long-lived refresh
//     tokens with independent HMAC secrets. A token of one kind never
//     verifies as the other; the kind claim is checked as a second gate.
//
// Provider login:
//   - AuthGateway orchestrates the external-provider login flow. An optional
//     invitation token is parked in a CorrelationStore keyed by an opaque
//     correlation key, and the key rides inside the authenticated state blob
//     produced by StateCodec so it is cryptographically bound to the request
//     that started the redirect. Correlation failures never fail a login.
//   - IdentityLinker resolves a provider profile to a local Account: by
//     provider subject, by email (attaching the subject), or by creating a
//     new patient account. Creation races resolve through the unique email
//     constraint.
//
// Invitations:
//   - InviteService owns the invite lifecycle (pending, accepted, expired,
//     removed via soft delete). Transition legality lives in a single
//     transitions table; expiry is applied lazily and persisted on read.
//
// Visibility:
//   - CanView is the only place resource visibility is decided. Read paths
//     call it and map denials to a not-found error so existence never leaks.
package portal
