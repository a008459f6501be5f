// Package identity maps user-facing identities (email-like strings) to keys
// that are safe inside store keys, composite key separators and pub/sub
// channel names.
package identity

import (
	"errors"
	"strings"
)

var ErrInvalidIdentity = errors.New("identity: invalid identity")

const hexDigits = "0123456789ABCDEF"

// reserved must stay in sync with Decode: every byte listed here is written
// as %XX by Encode.
const reserved = ".#$[]/%,|"

// Encode escapes reserved characters as %XX. The result never contains any
// reserved character other than '%'.
func Encode(identity string) (string, error) {
	if strings.TrimSpace(identity) == "" {
		return "", ErrInvalidIdentity
	}

	var b strings.Builder
	b.Grow(len(identity))
	for i := 0; i < len(identity); i++ {
		c := identity[i]
		if strings.IndexByte(reserved, c) >= 0 {
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0F])
			continue
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

// Decode reverses Encode. Keys that were not produced by Encode are decoded
// best-effort: malformed escapes are kept as-is and a bare ',' is read as the
// legacy placeholder for '.'.
func Decode(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '%' && i+2 < len(key):
			hi, okHi := unhex(key[i+1])
			lo, okLo := unhex(key[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
			b.WriteByte(c)
		case c == ',':
			b.WriteByte('.')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
