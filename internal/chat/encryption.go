package chat

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"koalitos/backend/internal/apperr"
)

const (
	keyLength = 32 // AES-256
	ivLength  = 12 // GCM standard nonce size
	tagLength = 16
)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// Envelope is an encrypted message body. All three fields are base64.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	AuthTag    string `json:"authTag"`
}

// Encryptor seals and opens message content with a single process-wide
// AES-256-GCM key.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor parses the secret (hex if it is a pure hex-digit string,
// base64 otherwise) and fails if it does not decode to exactly 32 bytes.
func NewEncryptor(secret string) (*Encryptor, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("CHAT_ENCRYPTION_KEY is not configured")
	}

	key, err := parseKey(secret)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}

	return &Encryptor{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random IV. Reusing an IV with the
// same key breaks GCM, so the IV always comes from crypto/rand.
func (e *Encryptor) Encrypt(plaintext string) (Envelope, error) {
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return Envelope{}, apperr.Wrap(apperr.CodeInternal, "failed to generate iv", err)
	}

	sealed := e.aead.Seal(nil, iv, []byte(plaintext), nil)
	split := len(sealed) - tagLength

	return Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(sealed[:split]),
		IV:         base64.StdEncoding.EncodeToString(iv),
		AuthTag:    base64.StdEncoding.EncodeToString(sealed[split:]),
	}, nil
}

// Decrypt opens an envelope. Any malformed input or authentication failure
// is an integrity error; corrupted content is never returned as plaintext.
func (e *Encryptor) Decrypt(env Envelope) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return "", apperr.Integrity("malformed ciphertext", err)
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(iv) != ivLength {
		return "", apperr.Integrity("malformed iv", err)
	}
	tag, err := base64.StdEncoding.DecodeString(env.AuthTag)
	if err != nil || len(tag) != tagLength {
		return "", apperr.Integrity("malformed auth tag", err)
	}

	plaintext, err := e.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", apperr.Integrity("message failed authentication", err)
	}

	return string(plaintext), nil
}

func parseKey(value string) ([]byte, error) {
	var key []byte
	var err error

	if hexPattern.MatchString(value) {
		key, err = hex.DecodeString(value)
	} else {
		key, err = base64.StdEncoding.DecodeString(value)
	}
	if err != nil {
		return nil, fmt.Errorf("CHAT_ENCRYPTION_KEY is not valid hex or base64: %w", err)
	}

	if len(key) != keyLength {
		return nil, fmt.Errorf("CHAT_ENCRYPTION_KEY must decode to exactly %d bytes, got %d", keyLength, len(key))
	}

	return key, nil
}
