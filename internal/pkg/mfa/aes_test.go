package mfa

import (
	"bytes"
	"errors"
	"testing"
)

func TestAESGCMEncryptor_RoundTrip(t *testing.T) {
	// Arrange
	enc := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{0x1f}, 32)})
	scope := Scope{UserID: 42, Purpose: PurposeOTPSeed}
	seed := []byte("JBSWY3DPEHPK3PXP")

	// Act
	ciphertext, err := enc.Encrypt(seed, scope)
	if err != nil {
		t.Fatalf("Encrypt() error = %v, want nil", err)
	}
	plain, err := enc.Decrypt(ciphertext, scope)

	// Assert
	if err != nil {
		t.Fatalf("Decrypt() error = %v, want nil", err)
	}
	if !bytes.Equal(plain, seed) {
		t.Fatalf("Decrypt() = %q, want %q", plain, seed)
	}
}

func TestAESGCMEncryptor_WrongScope(t *testing.T) {
	// Arrange
	enc := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{0x1f}, 32)})

	ciphertext, err := enc.Encrypt([]byte("JBSWY3DPEHPK3PXP"), Scope{UserID: 42, Purpose: PurposeOTPSeed})
	if err != nil {
		t.Fatalf("Encrypt() error = %v, want nil", err)
	}

	// Act
	_, err = enc.Decrypt(ciphertext, Scope{UserID: 43, Purpose: PurposeOTPSeed})

	// Assert
	if !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("Decrypt() error = %v, want ErrDecryptFailed", err)
	}
}

func TestAESGCMEncryptor_InvalidKeyLength(t *testing.T) {
	// Arrange
	enc := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: []byte("too-short")})

	// Act
	_, err := enc.Encrypt([]byte("seed"), Scope{UserID: 1, Purpose: PurposeOTPSeed})

	// Assert
	if !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("Encrypt() error = %v, want ErrInvalidKeyLength", err)
	}
}

func TestAESGCMEncryptor_TamperedCiphertext(t *testing.T) {
	// Arrange
	enc := NewAESGCMEncryptor(StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{0x1f}, 32)})
	scope := Scope{UserID: 42, Purpose: PurposeOTPSeed}

	ciphertext, err := enc.Encrypt([]byte("JBSWY3DPEHPK3PXP"), scope)
	if err != nil {
		t.Fatalf("Encrypt() error = %v, want nil", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xff

	// Act
	_, err = enc.Decrypt(ciphertext, scope)

	// Assert
	if !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("Decrypt() error = %v, want ErrDecryptFailed", err)
	}
}
