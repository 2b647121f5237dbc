package core

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/mazen160/go-random"
)

// the identity provider prepends this much random noise before the
// plaintext so identical passwords never encrypt to the same blob
const cipherNoiseLength = 64

// EncryptPassword reproduces the login page's client-side encryption:
// AES-CBC with the server-issued salt as the key, a random IV, PKCS7
// padding over 64 random bytes followed by the plaintext, base64 out.
func EncryptPassword(password, salt string) (string, error) {
	key := []byte(salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("salt is not a usable key: %w", err)
	}

	noise, err := random.String(cipherNoiseLength)
	if err != nil {
		return "", err
	}
	iv, err := random.String(aes.BlockSize)
	if err != nil {
		return "", err
	}

	plaintext := pkcs7Pad([]byte(noise+password), aes.BlockSize)
	encrypted := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, []byte(iv)).CryptBlocks(encrypted, plaintext)

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}
