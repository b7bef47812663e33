// Package relay is the transport boundary: the event model of the
// broadcast network and a websocket client pool that subscribes to and
// publishes signed events.
package relay

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Event kinds this client touches.
const (
	KindOrderBoard = 38383 // addressable order announcements
	KindGiftWrap   = 1059  // wrapped direct messages
)

// Event is one signed record on the network. Tags are an ordered list
// of string lists, first element the tag key.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// TagValue returns the first value of the first tag with the given key.
func (e *Event) TagValue(key string) (string, bool) {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == key {
			return tag[1], true
		}
	}
	return "", false
}

// ComputeID hashes the canonical serialization
// [0, pubkey, created_at, kind, tags, content].
func (e *Event) ComputeID() (string, error) {
	digest, err := e.digest()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

// Sign fills in PubKey, ID and Sig from the given key. The signature
// covers the 32-byte event id.
func (e *Event) Sign(priv *btcec.PrivateKey) error {
	if e.Tags == nil {
		e.Tags = [][]string{}
	}
	e.PubKey = hex.EncodeToString(schnorr.SerializePubKey(priv.PubKey()))
	digest, err := e.digest()
	if err != nil {
		return err
	}
	e.ID = hex.EncodeToString(digest)
	sig, err := schnorr.Sign(priv, digest)
	if err != nil {
		return fmt.Errorf("sign event: %w", err)
	}
	e.Sig = hex.EncodeToString(sig.Serialize())
	return nil
}

// Verify checks that ID matches the content and Sig matches PubKey.
func (e *Event) Verify() error {
	digest, err := e.digest()
	if err != nil {
		return err
	}
	if hex.EncodeToString(digest) != e.ID {
		return errors.New("event id does not match content")
	}
	rawPub, err := hex.DecodeString(e.PubKey)
	if err != nil {
		return fmt.Errorf("decode pubkey: %w", err)
	}
	pub, err := schnorr.ParsePubKey(rawPub)
	if err != nil {
		return fmt.Errorf("parse pubkey: %w", err)
	}
	rawSig, err := hex.DecodeString(e.Sig)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	sig, err := schnorr.ParseSignature(rawSig)
	if err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}
	if !sig.Verify(digest, pub) {
		return errors.New("invalid event signature")
	}
	return nil
}

func (e *Event) digest() ([]byte, error) {
	tags := e.Tags
	if tags == nil {
		tags = [][]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode([]any{0, e.PubKey, e.CreatedAt, e.Kind, tags, e.Content})
	if err != nil {
		return nil, fmt.Errorf("serialize event: %w", err)
	}
	digest := sha256.Sum256(bytes.TrimRight(buf.Bytes(), "\n"))
	return digest[:], nil
}
