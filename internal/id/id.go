// Package id generates random identifiers for tokens and confirmation codes.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// nonceAlphabet avoids characters that are easy to mistype when a code is copied from an email.
const nonceAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "tok-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// Nonce returns n random characters from an unambiguous lowercase alphabet.
func Nonce(n int) (string, error) {
	s, err := gonanoid.Generate(nonceAlphabet, n)
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return s, nil
}
