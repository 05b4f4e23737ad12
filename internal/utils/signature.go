package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// DeviceSignature is the base64 HMAC-SHA256 of method+path+body under secret.
func DeviceSignature(secret, method, path string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// ValidDeviceSignature compares in constant time.
func ValidDeviceSignature(secret, method, path string, body []byte, signature string) bool {
	expected := DeviceSignature(secret, method, path, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
