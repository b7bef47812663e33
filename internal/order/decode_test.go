package order

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

const testID = "3a6bdc0a-52f9-4fae-86ab-4f4b1c17f6a2"

func baseTags() [][]string {
	return [][]string{
		{"d", testID},
		{"k", "sell"},
		{"f", "VES"},
		{"s", "pending"},
		{"amt", "0"},
		{"fa", "100"},
		{"pm", "face to face"},
		{"premium", "1"},
	}
}

func TestFromTagsFixedOrder(t *testing.T) {
	o, err := FromTags(1700000000, baseTags())
	if err != nil {
		t.Fatalf("FromTags: %v", err)
	}
	if o.ID.String() != testID {
		t.Fatalf("id = %s, want %s", o.ID, testID)
	}
	if o.Kind != KindSell {
		t.Fatalf("kind = %q, want sell", o.Kind)
	}
	if o.Status != StatusPending {
		t.Fatalf("status = %q, want pending", o.Status)
	}
	if o.FiatCode != "VES" {
		t.Fatalf("fiat code = %q", o.FiatCode)
	}
	if o.Amount != 0 {
		t.Fatalf("amount = %d, want 0", o.Amount)
	}
	if o.FiatAmount != 100 {
		t.Fatalf("fiat amount = %d, want 100", o.FiatAmount)
	}
	if o.IsRange() {
		t.Fatal("fixed order reported as range")
	}
	if o.PaymentMethod != "face to face" {
		t.Fatalf("payment method = %q", o.PaymentMethod)
	}
	if o.Premium != 1 {
		t.Fatalf("premium = %d, want 1", o.Premium)
	}
	if o.CreatedAt != 1700000000 {
		t.Fatalf("created at = %d", o.CreatedAt)
	}
}

func TestFromTagsRangeOrder(t *testing.T) {
	tags := baseTags()
	tags[5] = []string{"fa", "100", "500"}
	o, err := FromTags(0, tags)
	if err != nil {
		t.Fatalf("FromTags: %v", err)
	}
	if !o.IsRange() {
		t.Fatal("range order not detected")
	}
	min, max := o.AmountBounds()
	if min != 100 || max != 500 {
		t.Fatalf("bounds = [%d, %d], want [100, 500]", min, max)
	}
}

func TestFromTagsRangeWithBadBound(t *testing.T) {
	tags := baseTags()
	tags[5] = []string{"fa", "100", "x"}
	o, err := FromTags(0, tags)
	if err != nil {
		t.Fatalf("FromTags: %v", err)
	}
	// The max failed to parse, so this is not a range.
	if o.IsRange() {
		t.Fatal("partial range bound must not make a range order")
	}
	if o.MinAmount == nil || *o.MinAmount != 100 {
		t.Fatalf("min = %v, want 100", o.MinAmount)
	}
}

func TestFromTagsDecimalFiatAmountIgnored(t *testing.T) {
	tags := baseTags()
	tags[5] = []string{"fa", "100.50"}
	o, err := FromTags(0, tags)
	if err != nil {
		t.Fatalf("FromTags: %v", err)
	}
	if o.FiatAmount != 0 {
		t.Fatalf("fiat amount = %d, want 0 for decimal value", o.FiatAmount)
	}
}

func TestFromTagsUnknownStatusBecomesDispute(t *testing.T) {
	tags := baseTags()
	tags[3] = []string{"s", "in-limbo"}
	o, err := FromTags(0, tags)
	if err != nil {
		t.Fatalf("FromTags: %v", err)
	}
	if o.Status != StatusDispute {
		t.Fatalf("status = %q, want dispute", o.Status)
	}
}

func TestFromTagsUnknownKindSkipped(t *testing.T) {
	tags := baseTags()
	tags[1] = []string{"k", "lend"}
	o, err := FromTags(0, tags)
	if err != nil {
		t.Fatalf("FromTags: %v", err)
	}
	if o.Kind != "" {
		t.Fatalf("kind = %q, want empty", o.Kind)
	}
	if o.Actionable() {
		t.Fatal("order without a kind must not be actionable")
	}
}

func TestFromTagsBadIDSkipped(t *testing.T) {
	tags := baseTags()
	tags[0] = []string{"d", "not-a-uuid"}
	o, err := FromTags(0, tags)
	if err != nil {
		t.Fatalf("FromTags: %v", err)
	}
	if o.ID != uuid.Nil {
		t.Fatalf("id = %s, want nil", o.ID)
	}
}

func TestFromTagsBadAmountFailsEvent(t *testing.T) {
	tags := baseTags()
	tags[4] = []string{"amt", "many"}
	_, err := FromTags(0, tags)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	if de.Tag != "amt" {
		t.Fatalf("tag = %q, want amt", de.Tag)
	}
}

func TestFromTagsBadPremiumFailsEvent(t *testing.T) {
	tags := baseTags()
	tags[7] = []string{"premium", "lots"}
	_, err := FromTags(0, tags)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
}

func TestFromTagsDuplicateKeyLastWins(t *testing.T) {
	tags := append(baseTags(), []string{"f", "EUR"})
	o, err := FromTags(0, tags)
	if err != nil {
		t.Fatalf("FromTags: %v", err)
	}
	if o.FiatCode != "EUR" {
		t.Fatalf("fiat code = %q, want EUR", o.FiatCode)
	}
}

func TestFromTagsShortTagsIgnored(t *testing.T) {
	tags := append(baseTags(), []string{"pm"}, []string{})
	o, err := FromTags(0, tags)
	if err != nil {
		t.Fatalf("FromTags: %v", err)
	}
	if o.PaymentMethod != "face to face" {
		t.Fatalf("payment method = %q", o.PaymentMethod)
	}
}
