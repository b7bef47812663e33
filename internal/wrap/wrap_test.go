package wrap

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"go-taker/internal/relay"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	recipient, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	content := `[{"order":{"action":"take-sell"}},"deadbeef"]`

	ev, err := Wrap(content, recipient.PubKey())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	got, err := Unwrap(ev, recipient)
	if err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if got != content {
		t.Fatalf("content = %q, want %q", got, content)
	}
}

func TestWrapOuterEventShape(t *testing.T) {
	recipient, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	ev, err := Wrap("hello", recipient.PubKey())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if ev.Kind != relay.KindGiftWrap {
		t.Fatalf("kind = %d, want %d", ev.Kind, relay.KindGiftWrap)
	}
	wantP := hex.EncodeToString(schnorr.SerializePubKey(recipient.PubKey()))
	p, ok := ev.TagValue("p")
	if !ok || p != wantP {
		t.Fatalf("p tag = %q, want %q", p, wantP)
	}
	if err := ev.Verify(); err != nil {
		t.Fatalf("outer event does not verify: %v", err)
	}
	if ev.PubKey == wantP {
		t.Fatal("outer event must not be signed by the recipient key")
	}
}

func TestWrapUsesEphemeralSender(t *testing.T) {
	recipient, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	a, err := Wrap("one", recipient.PubKey())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	b, err := Wrap("two", recipient.PubKey())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if a.PubKey == b.PubKey {
		t.Fatal("each wrap must come from a fresh key")
	}
}

func TestWrapTimestampSmearedBackwards(t *testing.T) {
	recipient, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	before := time.Now().Unix()
	ev, err := Wrap("hello", recipient.PubKey())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	after := time.Now().Unix()
	if ev.CreatedAt > after+1 {
		t.Fatalf("created_at %d is in the future", ev.CreatedAt)
	}
	floor := before - int64(timestampSmear/time.Second) - 1
	if ev.CreatedAt < floor {
		t.Fatalf("created_at %d smeared past the window floor %d", ev.CreatedAt, floor)
	}
}

func TestUnwrapWrongKeyFails(t *testing.T) {
	recipient, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	stranger, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	ev, err := Wrap("secret", recipient.PubKey())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	if _, err := Unwrap(ev, stranger); err == nil {
		t.Fatal("a third party must not be able to unwrap")
	}
}

func TestUnwrapRejectsGarbageContent(t *testing.T) {
	recipient, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	ev, err := Wrap("secret", recipient.PubKey())
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	ev.Content = "%%%not-base64%%%"
	if _, err := Unwrap(ev, recipient); err == nil {
		t.Fatal("non-base64 content must fail")
	}
	ev.Content = "c2hvcnQ=" // valid base64, shorter than a nonce
	if _, err := Unwrap(ev, recipient); err == nil {
		t.Fatal("truncated content must fail")
	}
}
