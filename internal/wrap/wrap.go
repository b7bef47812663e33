// Package wrap conceals a message's sender and recipient: the payload
// is encrypted to the recipient and published from a single-use
// ephemeral key, with the creation time smeared backwards.
package wrap

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"go-taker/internal/relay"
)

const (
	keyInfo = "taker-wrap-v1"

	// Maximum random backdating of the outer event's timestamp.
	timestampSmear = 2 * 24 * time.Hour
)

// Wrap encrypts content to the recipient and returns the outer event,
// signed by a fresh ephemeral key and tagged to the recipient.
func Wrap(content string, recipient *btcec.PublicKey) (relay.Event, error) {
	eph, err := btcec.NewPrivateKey()
	if err != nil {
		return relay.Event{}, fmt.Errorf("generate ephemeral key: %w", err)
	}
	sealed, err := seal([]byte(content), eph, recipient)
	if err != nil {
		return relay.Event{}, err
	}
	ev := relay.Event{
		Kind:      relay.KindGiftWrap,
		CreatedAt: smearedTimestamp(),
		Tags: [][]string{
			{"p", hex.EncodeToString(schnorr.SerializePubKey(recipient))},
		},
		Content: sealed,
	}
	if err := ev.Sign(eph); err != nil {
		return relay.Event{}, err
	}
	return ev, nil
}

// Unwrap decrypts a wrapped event addressed to the holder of priv.
func Unwrap(ev relay.Event, priv *btcec.PrivateKey) (string, error) {
	rawPub, err := hex.DecodeString(ev.PubKey)
	if err != nil {
		return "", fmt.Errorf("decode sender pubkey: %w", err)
	}
	sender, err := schnorr.ParsePubKey(rawPub)
	if err != nil {
		return "", fmt.Errorf("parse sender pubkey: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(ev.Content)
	if err != nil {
		return "", fmt.Errorf("decode wrapped content: %w", err)
	}
	if len(raw) < chacha20poly1305.NonceSize {
		return "", fmt.Errorf("wrapped content too short (%d bytes)", len(raw))
	}
	aead, err := cipherFor(priv, sender)
	if err != nil {
		return "", err
	}
	nonce, ciphertext := raw[:chacha20poly1305.NonceSize], raw[chacha20poly1305.NonceSize:]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt wrapped content: %w", err)
	}
	return string(plain), nil
}

func seal(plain []byte, priv *btcec.PrivateKey, pub *btcec.PublicKey) (string, error) {
	aead, err := cipherFor(priv, pub)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func cipherFor(priv *btcec.PrivateKey, pub *btcec.PublicKey) (cipher.AEAD, error) {
	var point secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	var shared secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&priv.Key, &point, &shared)
	shared.ToAffine()
	shared.X.Normalize()
	secret := shared.X.Bytes()

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret[:], nil, []byte(keyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive wrap key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return aead, nil
}

func smearedTimestamp() int64 {
	now := time.Now().Unix()
	offset, err := rand.Int(rand.Reader, big.NewInt(int64(timestampSmear/time.Second)))
	if err != nil {
		return now
	}
	return now - offset.Int64()
}
