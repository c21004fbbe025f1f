package lang

import (
	"strconv"
	"strings"
)

// Escape encodes an arbitrary string as a valid key. Every character that is
// not an ASCII letter or digit, and a digit in the first position, is
// written as an underscore followed by two lowercase hex digits. The empty
// string is encoded as a single underscore.
func Escape(s string) (string, error) {
	if s == "" {
		return "_", nil
	}

	var sb strings.Builder

	for i, r := range s {
		if r >= 256 {
			return "", ErrInvalidEscape.Wrapf(
				"string contains character which cannot be escaped: %x", r)
		}

		if isASCIILetter(r) || (i != 0 && isASCIIDigit(r)) {
			sb.WriteRune(r)

			continue
		}

		sb.WriteByte('_')

		if r < 16 {
			sb.WriteByte('0')
		}

		sb.WriteString(strconv.FormatInt(int64(r), 16))
	}

	return sb.String(), nil
}

// Unescape reverses [Escape].
func Unescape(s string) (string, error) {
	if s == "_" {
		return "", nil
	}

	var sb strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' {
			sb.WriteByte(c)

			continue
		}

		if i+2 >= len(s) {
			return "", ErrInvalidEscape.Wrapf("string contains incomplete escape sequence")
		}

		hex := s[i+1 : i+3]

		n, err := strconv.ParseUint(hex, 16, 8)
		if err != nil {
			return "", ErrInvalidEscape.Wrapf("string contains invalid escape sequence: %s", hex)
		}

		sb.WriteRune(rune(n))

		i += 2
	}

	return sb.String(), nil
}

func isASCIILetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
