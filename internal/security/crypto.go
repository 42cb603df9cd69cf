package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"tutorboard/pkg/format"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

var ErrBadPassphrase = errors.New("wrong deck passphrase")

// DeriveKey stretches a passphrase into a 32-byte AES key.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, 4096, 32, sha256.New)
}

// NewSalt returns format.SaltLen random bytes.
func NewSalt() ([]byte, error) {
	salt := make([]byte, format.SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Wrap(err, "salt")
	}
	return salt, nil
}

// Sign produces the passphrase check stored next to the salt.
func Sign(key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(format.SignPhrase))
	return mac.Sum(nil)
}

// Verify checks key against a stored signature.
func Verify(key, sig []byte) error {
	if !hmac.Equal(Sign(key), sig) {
		return ErrBadPassphrase
	}
	return nil
}

// Encrypt seals data with AES-GCM, prefixing a random nonce.
func Encrypt(data []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "nonce")
	}
	return gcm.Seal(nonce, nonce, data, nil), nil
}

// Decrypt opens data produced by Encrypt.
func Decrypt(data []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(data) < n {
		return nil, io.ErrUnexpectedEOF
	}
	out, err := gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, errors.Wrap(err, "open sealed block")
	}
	return out, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "aes")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "gcm")
	}
	return gcm, nil
}
