package portal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/goliatone/go-errors"
)

// LoginState is the payload carried through the external provider's state
// parameter. The correlation key travels inside the authenticated blob so it
// is bound to the request that started the redirect; a forged or replayed
// state fails decode before any store lookup happens.
type LoginState struct {
	Nonce          string `json:"n"`
	Provider       string `json:"p"`
	CorrelationKey string `json:"ck,omitempty"`
	RedirectURL    string `json:"r,omitempty"`
	IssuedAt       int64  `json:"iat"`
	ExpiresAt      int64  `json:"exp"`
}

// StateCodec encodes and verifies login state blobs.
type StateCodec interface {
	Encode(state *LoginState) (string, error)
	Decode(token string) (*LoginState, error)
}

// EncryptedStateCodec seals LoginState with AES-GCM and signs the result with
// HMAC-SHA256.
type EncryptedStateCodec struct {
	encryptionKey []byte
	hmacKey       []byte
	ttl           time.Duration
	now           func() time.Time
}

// EncryptedStateCodecOption configures the codec.
type EncryptedStateCodecOption func(*EncryptedStateCodec)

// WithStateTTL overrides the default state lifetime.
func WithStateTTL(ttl time.Duration) EncryptedStateCodecOption {
	return func(c *EncryptedStateCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithStateClock injects the time source, mostly for tests.
func WithStateClock(now func() time.Time) EncryptedStateCodecOption {
	return func(c *EncryptedStateCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewEncryptedStateCodec creates a codec. The encryption key must be a valid
// AES key length (16, 24, or 32 bytes).
func NewEncryptedStateCodec(encryptionKey, hmacKey []byte, opts ...EncryptedStateCodecOption) *EncryptedStateCodec {
	c := &EncryptedStateCodec{
		encryptionKey: encryptionKey,
		hmacKey:       hmacKey,
		ttl:           10 * time.Minute,
		now:           time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

var _ StateCodec = (*EncryptedStateCodec)(nil)

// Encode encrypts and signs the state.
func (c *EncryptedStateCodec) Encode(state *LoginState) (string, error) {
	if state == nil {
		return "", ErrInvalidState
	}

	now := c.now()
	if state.IssuedAt == 0 {
		state.IssuedAt = now.Unix()
	}
	if state.ExpiresAt == 0 {
		state.ExpiresAt = now.Add(c.ttl).Unix()
	}
	if state.Nonce == "" {
		state.Nonce = generateNonce()
	}

	plaintext, err := json.Marshal(state)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to marshal state")
	}

	block, err := aes.NewCipher(c.encryptionKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to create GCM")
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate nonce")
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	mac := hmac.New(sha256.New, c.hmacKey)
	mac.Write(ciphertext)
	signature := mac.Sum(nil)

	return base64.URLEncoding.EncodeToString(append(signature, ciphertext...)), nil
}

// Decode verifies and decrypts the state.
func (c *EncryptedStateCodec) Decode(token string) (*LoginState, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidState
	}

	if len(data) < sha256.Size {
		return nil, ErrInvalidState
	}

	signature := data[:sha256.Size]
	ciphertext := data[sha256.Size:]

	mac := hmac.New(sha256.New, c.hmacKey)
	mac.Write(ciphertext)
	expectedMAC := mac.Sum(nil)

	if !hmac.Equal(signature, expectedMAC) {
		return nil, ErrInvalidState
	}

	block, err := aes.NewCipher(c.encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create cipher")
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create GCM")
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidState
	}

	nonce, encrypted := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encrypted, nil)
	if err != nil {
		return nil, ErrInvalidState
	}

	var state LoginState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, ErrInvalidState
	}

	if c.now().Unix() > state.ExpiresAt {
		return nil, ErrStateExpired
	}

	return &state, nil
}

func generateNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
