package main

import (
	"crypto/ed25519"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// GenerateKeyPair returns a fresh Ed25519 key pair.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}

// NewMnemonic generates a fresh 24-word BIP-39 mnemonic (256 bits of
// entropy), for DeriveKeyFromMnemonic below.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("keys: generate entropy: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}

// DeriveKeyFromMnemonic turns a BIP-39 mnemonic and passphrase into a
// reproducible Ed25519 private key: the first 32 bytes of the BIP-39 seed
// become the Ed25519 seed. This exists for deterministic demo/test
// keypairs, not as a multi-account wallet — there is no keystore file and
// no derivation path tree here.
func DeriveKeyFromMnemonic(mnemonic, passphrase string) (ed25519.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("keys: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize]), nil
}
