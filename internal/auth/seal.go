package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var errSealedSession = errors.New("sealed erp session is invalid")

// sealKey derives the token encryption key from the signing secret so the
// two never share raw key material.
func sealKey(secret string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("pos erp session"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive seal key: %w", err)
	}
	return key, nil
}

// sealSession encrypts the ERP sid bound to the token's session id. The
// result is opaque to anyone holding the token without the secret.
func sealSession(secret string, session []byte, sid string) (string, error) {
	key, err := sealKey(secret)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(sid)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("seal nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(sid), session)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func openSession(secret string, session []byte, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", errSealedSession
	}
	key, err := sealKey(secret)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errSealedSession
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	sid, err := aead.Open(nil, nonce, ct, session)
	if err != nil {
		return "", errSealedSession
	}
	return string(sid), nil
}
