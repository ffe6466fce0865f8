// Package jwt implements the token codec: HS256 signing and
// verification of access and refresh tokens with independent secrets,
// TTLs, and claim shapes.
//
// The codec is side-effect free. Whether a token's backing session is
// still alive is not its concern; that question belongs to the
// revocation store.
package jwt
