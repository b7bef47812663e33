package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

func TestDerivationIsDeterministic(t *testing.T) {
	a, err := FromSeedPhrase("abandon ability able", 0)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := FromSeedPhrase("abandon ability able", 0)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a.PublicHex() != b.PublicHex() {
		t.Fatal("same phrase and index must yield the same key")
	}
}

func TestDistinctIndicesDistinctKeys(t *testing.T) {
	seen := make(map[string]uint32)
	for _, idx := range []uint32{0, 1, 2, 17} {
		k, err := FromSeedPhrase("abandon ability able", idx)
		if err != nil {
			t.Fatalf("derive index %d: %v", idx, err)
		}
		pub := k.PublicHex()
		if len(pub) != 64 {
			t.Fatalf("pubkey %q is not 32 bytes hex", pub)
		}
		if prev, dup := seen[pub]; dup {
			t.Fatalf("index %d collides with index %d", idx, prev)
		}
		seen[pub] = idx
	}
}

func TestDistinctPhrasesDistinctKeys(t *testing.T) {
	a, err := FromSeedPhrase("phrase one", 0)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := FromSeedPhrase("phrase two", 0)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a.PublicHex() == b.PublicHex() {
		t.Fatal("different phrases must yield different keys")
	}
}

func TestSignVerifies(t *testing.T) {
	k, err := FromSeedPhrase("abandon ability able", 1)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	payload := []byte(`{"order":{}}`)
	sigHex, err := k.Sign(payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	rawSig, err := hex.DecodeString(sigHex)
	if err != nil {
		t.Fatalf("signature is not hex: %v", err)
	}
	sig, err := schnorr.ParseSignature(rawSig)
	if err != nil {
		t.Fatalf("parse signature: %v", err)
	}
	pub, err := ParsePublicKey(k.PublicHex())
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	digest := sha256.Sum256(payload)
	if !sig.Verify(digest[:], pub) {
		t.Fatal("signature does not verify")
	}
}

func TestParsePublicKeyRejectsGarbage(t *testing.T) {
	if _, err := ParsePublicKey("zz"); err == nil {
		t.Fatal("non-hex input must fail")
	}
	if _, err := ParsePublicKey("abcd"); err == nil {
		t.Fatal("short key must fail")
	}
}
