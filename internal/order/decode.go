package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DecodeError reports a tag whose value could not be interpreted.
// Callers skip the whole event and leave the book untouched.
type DecodeError struct {
	Tag   string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode tag %q value %q: %v", e.Tag, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FromTags projects an event's tag list into an Order. Tags are applied
// independently of their position; a duplicated key wins with its last
// occurrence.
//
// Per-tag policy:
//   - "d": an unparseable id is skipped, leaving ID unset; the book
//     rejects such a projection later.
//   - "k": an unknown kind is skipped, leaving Kind unset (the order is
//     shown but not actionable). Lenient on purpose, so future side
//     vocabulary does not break ingestion.
//   - "s": unknown statuses map to StatusDispute.
//   - "amt", "premium": a malformed integer fails the whole event.
//   - "fa": a value containing a decimal point is a foreign format and
//     the tag is ignored; with a third element the pair is [min, max],
//     otherwise the single value is the fixed fiat amount (0 on parse
//     failure).
func FromTags(createdAt int64, tags [][]string) (Order, error) {
	o := Order{CreatedAt: createdAt}
	for _, tag := range tags {
		if len(tag) < 2 {
			continue
		}
		key, val := tag[0], tag[1]
		switch key {
		case "d":
			id, err := uuid.Parse(val)
			if err != nil {
				continue
			}
			o.ID = id
		case "k":
			if k, ok := ParseKind(val); ok {
				o.Kind = k
			}
		case "f":
			o.FiatCode = val
		case "s":
			o.Status = ParseStatus(val)
		case "amt":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return Order{}, &DecodeError{Tag: key, Value: val, Err: err}
			}
			o.Amount = n
		case "fa":
			if strings.Contains(val, ".") {
				continue
			}
			if len(tag) >= 3 {
				o.MinAmount, o.MaxAmount = nil, nil
				if n, err := strconv.ParseInt(val, 10, 64); err == nil {
					o.MinAmount = &n
				}
				if n, err := strconv.ParseInt(tag[2], 10, 64); err == nil {
					o.MaxAmount = &n
				}
			} else {
				n, err := strconv.ParseInt(val, 10, 64)
				if err != nil {
					n = 0
				}
				o.FiatAmount = n
			}
		case "pm":
			o.PaymentMethod = val
		case "premium":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return Order{}, &DecodeError{Tag: key, Value: val, Err: err}
			}
			o.Premium = n
		}
	}
	return o, nil
}
