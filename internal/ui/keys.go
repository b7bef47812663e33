package ui

import (
	"context"
	"io"
	"unicode/utf8"
)

// KeyCode classifies one decoded key press.
type KeyCode int

const (
	KeyRune KeyCode = iota
	KeyUp
	KeyDown
	KeyEnter
	KeyEsc
	KeyBackspace
	KeyCtrlC
)

type Key struct {
	Code KeyCode
	Rune rune
}

// ReadKeys decodes raw-mode terminal input into key events. The reader
// goroutine exits when the input closes or the context is canceled; the
// channel is closed either way.
func ReadKeys(ctx context.Context, r io.Reader) <-chan Key {
	out := make(chan Key, 16)
	go func() {
		defer close(out)
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			if err != nil {
				return
			}
			for _, k := range decodeChunk(buf[:n]) {
				select {
				case out <- k:
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return out
}

// decodeChunk parses one raw read. Escape sequences arrive within a
// single read in raw mode, so a lone 0x1b is a plain escape press.
func decodeChunk(chunk []byte) []Key {
	var out []Key
	for i := 0; i < len(chunk); {
		b := chunk[i]
		switch {
		case b == 0x1b:
			if i+2 < len(chunk) && chunk[i+1] == '[' {
				switch chunk[i+2] {
				case 'A':
					out = append(out, Key{Code: KeyUp})
					i += 3
					continue
				case 'B':
					out = append(out, Key{Code: KeyDown})
					i += 3
					continue
				}
			}
			out = append(out, Key{Code: KeyEsc})
			i++
		case b == '\r' || b == '\n':
			out = append(out, Key{Code: KeyEnter})
			i++
		case b == 0x7f || b == 0x08:
			out = append(out, Key{Code: KeyBackspace})
			i++
		case b == 0x03:
			out = append(out, Key{Code: KeyCtrlC})
			i++
		case b < 0x20:
			i++
		default:
			r, size := utf8.DecodeRune(chunk[i:])
			if r == utf8.RuneError && size == 1 {
				i++
				continue
			}
			out = append(out, Key{Code: KeyRune, Rune: r})
			i += size
		}
	}
	return out
}
