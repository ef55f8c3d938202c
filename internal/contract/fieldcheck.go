package contract

import "fmt"

// Shared field constraints. Every string field on the contract surface is
// printable ASCII with an explicit length bound; anything else is refused at
// intake rather than coerced.
const (
	// MaxIdentifierLen bounds stable string identifiers (candidate IDs,
	// work-order IDs, owner IDs, capability IDs).
	MaxIdentifierLen = 128

	// MaxMessageLen bounds human-readable refusal messages.
	MaxMessageLen = 256
)

// CheckIdentifier validates a stable string identifier: non-empty, at most
// MaxIdentifierLen bytes, printable ASCII, no control characters.
func CheckIdentifier(field, s string) error {
	return checkASCII(field, s, MaxIdentifierLen)
}

// CheckMessage validates a short human-readable message with the same charset
// rules as identifiers but a larger length bound.
func CheckMessage(field, s string) error {
	return checkASCII(field, s, MaxMessageLen)
}

// ClipMessage bounds a synthesized message to MaxMessageLen and substitutes
// '?' for bytes outside printable ASCII, so refusal construction cannot fail
// on an error string the engine did not author.
func ClipMessage(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s) && len(out) < MaxMessageLen; i++ {
		c := s[i]
		if c >= 0x20 && c <= 0x7e {
			out = append(out, c)
		} else {
			out = append(out, '?')
		}
	}
	if len(out) == 0 {
		return "unspecified failure"
	}
	return string(out)
}

func checkASCII(field, s string, maxLen int) error {
	if s == "" {
		return &FieldError{Field: field, Message: "must not be empty"}
	}
	if len(s) > maxLen {
		return &FieldError{Field: field, Message: fmt.Sprintf("exceeds %d bytes (got %d)", maxLen, len(s))}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			return &FieldError{Field: field, Message: fmt.Sprintf("non-printable or non-ASCII byte 0x%02x at offset %d", c, i)}
		}
	}
	return nil
}
