package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
)

// DecryptionPlaceholder replaces the content of a single message whose
// ciphertext cannot be decrypted; the rest of the page is unaffected.
const DecryptionPlaceholder = "decryption error"

// Cipher applies the transport-level content transform: AES-CBC with a random
// IV per message, encoded as "ivHex:cipherHex". A nil key disables the
// transform and both directions pass values through unchanged.
type Cipher struct {
	key []byte
}

// New builds a Cipher from a hex-encoded 16, 24 or 32 byte key. An empty
// string yields a disabled cipher.
func New(hexKey string) (*Cipher, error) {
	if hexKey == "" {
		return &Cipher{}, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid encryption key length %d", len(key))
	}
	return &Cipher{key: key}, nil
}

func (c *Cipher) Enabled() bool {
	return len(c.key) > 0
}

func (c *Cipher) Encrypt(plain string) (string, error) {
	if !c.Enabled() {
		return plain, nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padded := pad([]byte(plain), aes.BlockSize)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(encrypted), nil
}

// Decrypt reverses Encrypt. Values without the "ivHex:cipherHex" separator are
// treated as legacy plaintext and returned as-is. Decryption failures never
// propagate: the placeholder is returned so one bad row cannot break a page.
func (c *Cipher) Decrypt(value string) string {
	if !c.Enabled() {
		return value
	}

	ivHex, cipherHex, found := strings.Cut(value, ":")
	if !found {
		return value
	}

	plain, err := c.decrypt(ivHex, cipherHex)
	if err != nil {
		log.Printf("Error decrypting message content: %v", err)
		return DecryptionPlaceholder
	}
	return plain
}

func (c *Cipher) decrypt(ivHex, cipherHex string) (string, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("invalid IV")
	}
	encrypted, err := hex.DecodeString(cipherHex)
	if err != nil || len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return "", fmt.Errorf("invalid ciphertext")
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	padded := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, encrypted)

	plain, err := unpad(padded, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
