package backup

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is the PBKDF2-SHA256 iteration count for deriving
	// the AES-256 key from the passphrase.
	pbkdf2Iterations = 100000
	saltSize         = 32
	keySize          = 32 // 256 bits
)

// EncryptedExtension is appended to artifact names when encryption is on.
const EncryptedExtension = "enc"

// ArtifactCipher encrypts and decrypts archive artifacts with AES-256-GCM.
// The on-disk layout is salt || nonce || ciphertext; the key is derived from
// the passphrase with PBKDF2-SHA256 using the per-artifact salt.
type ArtifactCipher struct {
	passphrase []byte
}

// NewArtifactCipher creates a cipher bound to the given passphrase
func NewArtifactCipher(passphrase []byte) (*ArtifactCipher, error) {
	if len(passphrase) == 0 {
		return nil, NewEncryptionError("encryption passphrase cannot be empty", nil)
	}
	return &ArtifactCipher{passphrase: passphrase}, nil
}

// Encrypt seals plaintext with a fresh salt and nonce
func (c *ArtifactCipher) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, NewEncryptionError("failed to generate salt", err)
	}

	gcm, err := c.newGCM(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, NewEncryptionError("failed to generate nonce", err)
	}

	// salt || nonce || ciphertext
	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens data previously sealed by Encrypt
func (c *ArtifactCipher) Decrypt(data []byte) ([]byte, error) {
	if len(data) < saltSize {
		return nil, NewEncryptionError("encrypted artifact too short", nil)
	}
	salt, rest := data[:saltSize], data[saltSize:]

	gcm, err := c.newGCM(salt)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(rest) < nonceSize {
		return nil, NewEncryptionError("encrypted artifact too short", nil)
	}
	nonce, ciphertext := rest[:nonceSize], rest[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, NewEncryptionError("failed to decrypt artifact", err)
	}
	return plaintext, nil
}

func (c *ArtifactCipher) newGCM(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.passphrase, salt, pbkdf2Iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, NewEncryptionError("failed to create AES cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, NewEncryptionError("failed to create GCM cipher", err)
	}
	return gcm, nil
}
