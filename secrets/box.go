// Package secrets seals small payloads — the stored-credential blobs clients
// hold between requests — with an authenticated cipher, so a leaked blob
// reveals nothing and a tampered one fails to open.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
)

// ErrOpenFailed means the blob was sealed under a different key or was
// modified.
var ErrOpenFailed = errors.New("secrets: cannot open sealed blob")

const nonceSize = 24

// Codec seals and opens blobs under one key.
type Codec struct {
	key [32]byte
}

// NewCodec derives a sealing key from the configured passphrase. An empty
// passphrase is rejected so a misconfigured deployment can't silently seal
// under a constant key.
func NewCodec(passphrase string) (*Codec, error) {
	if passphrase == "" {
		return nil, errors.New("secrets: empty sealing key")
	}
	c := &Codec{key: sha256.Sum256([]byte(passphrase))}
	return c, nil
}

// Seal encrypts plaintext and returns an unpadded URL-safe base64 blob of
// nonce||ciphertext.
func (c *Codec) Seal(plaintext []byte) string {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		panic("secrets: rand: " + err.Error())
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

// Open reverses Seal. Any corruption or key mismatch is ErrOpenFailed.
func (c *Codec) Open(blob string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil || len(raw) < nonceSize {
		return nil, ErrOpenFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}

// Credentials is the payload sealed for the re-authentication path. The
// password inside only ever lives server-side for the duration of one
// authentication call.
type Credentials struct {
	SchoolCode string `json:"schoolCode"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

// SealCredentials serializes and seals creds.
func (c *Codec) SealCredentials(creds Credentials) string {
	b, _ := json.Marshal(creds)
	return c.Seal(b)
}

// OpenCredentials opens and deserializes a credentials blob.
func (c *Codec) OpenCredentials(blob string) (Credentials, error) {
	raw, err := c.Open(blob)
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, ErrOpenFailed
	}
	return creds, nil
}
