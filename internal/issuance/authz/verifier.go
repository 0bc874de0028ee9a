package authz

import (
	"crypto/ed25519"
	"encoding/hex"
	"time"

	dErrors "sigil/pkg/domain-errors"
)

// Verify checks a signed authorization against the trusted signer key.
// Deadline is checked before the signature so callers can distinguish a stale
// authorization from a forged one. The nonce is NOT checked here; the caller
// consumes it separately, only after full verification succeeds.
func Verify(signerKeyHex string, msg Message, signatureHex string, now time.Time) error {
	if msg.Deadline < now.Unix() {
		return dErrors.New(dErrors.CodeAuthorizationExpired, "authorization deadline has passed")
	}

	if signerKeyHex == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "no trusted signer configured")
	}
	pub, err := hex.DecodeString(signerKeyHex)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return dErrors.New(dErrors.CodeUnauthorized, "trusted signer key is malformed")
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return dErrors.New(dErrors.CodeUnauthorized, "signature is malformed")
	}

	digest := msg.Digest()
	if !ed25519.Verify(ed25519.PublicKey(pub), digest[:], sig) {
		return dErrors.New(dErrors.CodeUnauthorized, "signature does not verify against the trusted signer")
	}
	return nil
}

// Sign produces the hex signature for a message. Used by the offline
// authorization generator and by tests; the service itself never signs.
func Sign(priv ed25519.PrivateKey, msg Message) string {
	digest := msg.Digest()
	return hex.EncodeToString(ed25519.Sign(priv, digest[:]))
}
