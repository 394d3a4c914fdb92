package ports

import "crypto/ed25519"

// KeyStore holds the server's own Ed25519 signing pair.
type KeyStore interface {
	// Sign signs the message with the server's private key.
	Sign(message []byte) ([]byte, error)

	// PublicKey returns the server's raw public key.
	PublicKey() ed25519.PublicKey
}
