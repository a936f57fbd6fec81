package runtime

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/gashu/pkg/domain"
)

// EnvMaxInputSize overrides DefaultMaxInputSize.
const EnvMaxInputSize = "GASHU_MAX_INPUT_SIZE"

// DefaultMaxInputSize bounds one utterance in bytes. Riders name a place or
// answer a question; anything larger is a paste accident or abuse of the
// model budget.
var DefaultMaxInputSize = 2048

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput turns raw client text into the utterance the classifier and
// the stage logs see: one line, whitespace runs folded into a single space,
// control characters dropped, ends trimmed. Oversized input is rejected
// rather than cut, since a truncated utterance may name the wrong place.
// Blank input yields domain.ErrEmptyInput.
func SanitizeInput(input string) (string, error) {
	if limit := maxInputSize(); len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	var b strings.Builder
	b.Grow(len(input))
	space := false
	for _, r := range input {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
		case unicode.IsControl(r):
		default:
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "", domain.ErrEmptyInput
	}
	return b.String(), nil
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
