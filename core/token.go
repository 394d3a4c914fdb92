package core

import (
	"crypto/ed25519"
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"
)

// MessagePrefix starts every signed attendance message. The full message is
// the literal ASCII string "attendance:<issuedAt>:<base58 server key>"; both
// the server and the employee sign exactly these bytes.
const MessagePrefix = "attendance"

// Token is the server-issued, time-boxed proof that an attendance window is
// genuine. It is a value: issued fresh every rotation, never stored. The
// JSON field names match the payload embedded in the QR code, which the
// TweetNaCl browser client parses and signs.
type Token struct {
	Message         string `json:"message"`
	Signature       string `json:"signature"`         // base58, 64 bytes
	IssuedAt        int64  `json:"timestamp"`         // unix seconds, rotation slot
	ServerPublicKey string `json:"server_public_key"` // base58, 32 bytes
}

// AttendanceRequest is one presented attendance event: the scanned token
// plus the employee's counter-signature over the same message bytes.
type AttendanceRequest struct {
	Token             Token  `json:"server_qr"`
	EmployeeKey       string `json:"public_key"` // base58, 32 bytes
	EmployeeSignature string `json:"employee_signature"`
	ConfirmCheckout   bool   `json:"confirm_checkout"`
}

// TokenMessage builds the canonical message for a token issued at the given
// unix second by the given server key. Verification recomputes the message
// from these two fields rather than trusting the client-provided string.
func TokenMessage(issuedAt int64, serverPublicKey string) string {
	return MessagePrefix + ":" + strconv.FormatInt(issuedAt, 10) + ":" + serverPublicKey
}

// EncodeKey encodes a raw Ed25519 public key for the wire.
func EncodeKey(key ed25519.PublicKey) string {
	return base58.Encode(key)
}

// EncodeSignature encodes a raw Ed25519 signature for the wire.
func EncodeSignature(sig []byte) string {
	return base58.Encode(sig)
}

// DecodePublicKey decodes a base58 public key and checks its length.
func DecodePublicKey(s string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key has %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// DecodeSignature decodes a base58 Ed25519 signature and checks its length.
func DecodeSignature(s string) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decoding signature: %w", err)
	}
	if len(raw) != ed25519.SignatureSize {
		return nil, fmt.Errorf("signature has %d bytes, want %d", len(raw), ed25519.SignatureSize)
	}
	return raw, nil
}
