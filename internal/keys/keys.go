// Package keys derives the per-trade signing identities from the stored
// seed phrase. The identity key lives at derivation index 0; each trade
// uses the next free index so counterparties never see a key twice.
package keys

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"golang.org/x/crypto/pbkdf2"
)

// Derivation path m/44'/1237'/38383'/0/<index>. 1237 is the coin type
// of the event network, 38383 the account bound to the order board.
const (
	purpose  = 44
	coinType = 1237
	account  = 38383
)

type Keys struct {
	priv *btcec.PrivateKey
	pub  *btcec.PublicKey
}

// FromSeedPhrase stretches the seed phrase and derives the key at the
// given trade index. Index 0 is the identity key.
func FromSeedPhrase(phrase string, index uint32) (*Keys, error) {
	seed := pbkdf2.Key([]byte(phrase), []byte("mnemonic"), 2048, 64, sha512.New)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	path := []uint32{
		hdkeychain.HardenedKeyStart + purpose,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + account,
		0,
		index,
	}
	key := master
	for _, child := range path {
		key, err = key.Derive(child)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", child, err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}
	return &Keys{priv: priv, pub: priv.PubKey()}, nil
}

// PublicHex is the x-only public key in lowercase hex, the identity
// format used on the wire.
func (k *Keys) PublicHex() string {
	return hex.EncodeToString(schnorr.SerializePubKey(k.pub))
}

// Sign produces a hex-encoded schnorr signature over the sha256 digest
// of data.
func (k *Keys) Sign(data []byte) (string, error) {
	digest := sha256.Sum256(data)
	sig, err := schnorr.Sign(k.priv, digest[:])
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig.Serialize()), nil
}

// Private exposes the raw key for collaborators that sign or decrypt
// directly (event signing, unwrapping).
func (k *Keys) Private() *btcec.PrivateKey {
	return k.priv
}

// ParsePublicKey decodes a 64-char hex x-only public key.
func ParsePublicKey(s string) (*btcec.PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode public key hex: %w", err)
	}
	pub, err := schnorr.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return pub, nil
}
