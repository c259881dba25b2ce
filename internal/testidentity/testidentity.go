// Package testidentity derives reproducible ed25519 keypairs from a BIP-39
// mnemonic, so fixtures and demo scripts can hand out the same set of
// addresses across runs without persisting any key material.
package testidentity

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"

	"github.com/klingon-exchange/duopool/internal/identity"
)

func newSHA512() hash.Hash { return sha512.New() }

// Keypair is a derived ed25519 identity: the address it corresponds to and
// the private key that signs for it.
type Keypair struct {
	Address identity.Address
	Private ed25519.PrivateKey
}

// Wallet derives an unbounded sequence of Keypairs from a single BIP-39
// mnemonic. Deriving the same index from the same mnemonic twice always
// produces the same Keypair (the determinism testable property).
type Wallet struct {
	seed []byte
}

// NewWallet validates mnemonic and returns a Wallet seeded from it. An
// empty passphrase is the common case for test fixtures.
func NewWallet(mnemonic, passphrase string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("testidentity: invalid mnemonic")
	}
	return &Wallet{seed: bip39.NewSeed(mnemonic, passphrase)}, nil
}

// NewMnemonic generates a fresh 24-word BIP-39 mnemonic, for callers that
// want a new reproducible identity space rather than a fixed test one.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("testidentity: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("testidentity: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// Derive returns the Keypair at index, counting from zero. Each index's
// private key material is expanded independently via HKDF-SHA512 over the
// wallet's seed, so indices never share entropy with one another.
func (w *Wallet) Derive(index uint32) (Keypair, error) {
	info := make([]byte, 4)
	binary.BigEndian.PutUint32(info, index)

	kdf := hkdf.New(newSHA512, w.seed, nil, info)
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(kdf, seed); err != nil {
		return Keypair{}, fmt.Errorf("testidentity: derive index %d: %w", index, err)
	}

	priv := ed25519.NewKeyFromSeed(seed)
	addr, err := identity.FromBytes(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return Keypair{}, fmt.Errorf("testidentity: derive index %d: %w", index, err)
	}
	return Keypair{Address: addr, Private: priv}, nil
}

// MustDerive is Derive for call sites (fixtures, demo seeding) that treat a
// derivation failure as a programming error rather than a runtime one.
func (w *Wallet) MustDerive(index uint32) Keypair {
	kp, err := w.Derive(index)
	if err != nil {
		panic(err)
	}
	return kp
}
