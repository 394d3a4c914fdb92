// Package keystore holds the server's Ed25519 signing pair on disk.
package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"
)

const keysFile = "server_keys.json"

// keysPayload is the on-disk format. The private key uses the 64-byte
// seed-plus-public layout (what ed25519.PrivateKey already is, and what
// TweetNaCl clients expect), both keys base58-encoded.
type keysPayload struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

// FileKeyStore implements ports.KeyStore from a key file in the keys
// directory.
type FileKeyStore struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// LoadOrGenerate loads the server pair from dir, generating and saving a
// fresh one on first boot. Returns whether the pair was newly generated.
func LoadOrGenerate(dir string) (*FileKeyStore, bool, error) {
	path := filepath.Join(dir, keysFile)

	raw, err := os.ReadFile(path)
	if err == nil {
		ks, err := parse(raw)
		if err != nil {
			return nil, false, fmt.Errorf("parsing %s: %w", path, err)
		}
		return ks, false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, fmt.Errorf("reading server keys: %w", err)
	}

	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, false, fmt.Errorf("generating Ed25519 keypair: %w", err)
	}

	payload, err := json.MarshalIndent(keysPayload{
		PrivateKey: base58.Encode(private),
		PublicKey:  base58.Encode(public),
	}, "", "  ")
	if err != nil {
		return nil, false, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, false, fmt.Errorf("creating keys dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0600); err != nil {
		return nil, false, fmt.Errorf("writing server keys: %w", err)
	}

	return &FileKeyStore{public: public, private: private}, true, nil
}

func parse(raw []byte) (*FileKeyStore, error) {
	var payload keysPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	privateBytes, err := base58.Decode(payload.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("decoding private key: %w", err)
	}

	// Accept both the 64-byte layout and a bare 32-byte seed from older
	// deployments.
	var private ed25519.PrivateKey
	switch len(privateBytes) {
	case ed25519.PrivateKeySize:
		private = ed25519.PrivateKey(privateBytes)
	case ed25519.SeedSize:
		private = ed25519.NewKeyFromSeed(privateBytes)
	default:
		return nil, fmt.Errorf("private key has %d bytes, want %d or %d",
			len(privateBytes), ed25519.PrivateKeySize, ed25519.SeedSize)
	}

	return &FileKeyStore{
		public:  private.Public().(ed25519.PublicKey),
		private: private,
	}, nil
}

// Sign signs the message with the server's private key.
func (k *FileKeyStore) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.private, message), nil
}

// PublicKey returns the server's raw public key.
func (k *FileKeyStore) PublicKey() ed25519.PublicKey {
	return k.public
}
