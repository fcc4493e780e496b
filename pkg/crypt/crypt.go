// Package crypt seals short secrets (OAuth refresh tokens) for storage with
// AES-256-GCM. Output is base64url(nonce || ciphertext || tag).
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/artisansally/ally/config"
)

// ErrDecrypt covers every decode/authentication failure.
var ErrDecrypt = errors.New("crypt: decryption failed")

func aead() (cipher.AEAD, error) {
	secret := config.AppKey()
	if secret == "" {
		return nil, errors.New("crypt: APP_KEY not configured")
	}
	k := sha256.Sum256([]byte("ally:at-rest:" + secret))

	block, err := aes.NewCipher(k[:])
	if err != nil {
		return nil, fmt.Errorf("crypt: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypt: new GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext.
func Encrypt(plaintext string) (string, error) {
	gcm, err := aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypt: nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

// Decrypt opens a value produced by Encrypt.
func Decrypt(encoded string) (string, error) {
	gcm, err := aead()
	if err != nil {
		return "", err
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(data) < gcm.NonceSize() {
		return "", ErrDecrypt
	}

	n := gcm.NonceSize()
	plain, err := gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
