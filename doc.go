// Package auth provides the authentication primitives of a multi shop
// storefront: credential hashing, sealed session tokens, and the host to
// shop registry, plus the HTTP login controller built on them.
//
// Credentials:
//   - Hasher produces self describing argon2id PHC strings and verifies them
//     in constant time. Legacy bcrypt hashes still verify and are reported by
//     NeedsRehash so the Authenticator upgrades them on the next login.
//
// Sessions:
//   - SessionCodec seals SessionClaims with XChaCha20-Poly1305 into an opaque
//     "sess.v1." token. Every token is bound to a server side secret passed as
//     additional data, so a token issued for one deployment never verifies on
//     another. Verify never reports why a token was rejected.
//
// Tenants:
//   - TenantRegistry maps a normalized host to its shop and is safe for
//     concurrent lookups while a TenantLoader swaps its contents from a
//     TenantSource (database, YAML file or redis).
//
// The request interceptors living under middleware/ attach the resolved
// shop, the verified session and an optional message to each request; use
// the SessionFrom, TenantFrom and MessageFrom helpers to read them back.
package auth
