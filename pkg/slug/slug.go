package slug

import (
	"crypto/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength is the longest DNS label.
const DefaultMaxLength = 63

const separator = '-'

// Option configures Make.
type Option func(*config)

type config struct {
	maxLength     int
	customReplace map[string]string
	suffixLength  int
}

// MaxLength caps the slug length, suffix included. Values outside 1..63 are ignored.
func MaxLength(n int) Option {
	return func(c *config) {
		if n > 0 && n <= DefaultMaxLength {
			c.maxLength = n
		}
	}
}

// CustomReplace applies replacements before slugification, e.g. {"&": "and"}.
func CustomReplace(replacements map[string]string) Option {
	return func(c *config) {
		c.customReplace = replacements
	}
}

// WithSuffix appends a random lowercase alphanumeric suffix of the given length.
func WithSuffix(length int) Option {
	return func(c *config) {
		c.suffixLength = length
	}
}

// Make turns a display name into a lowercase DNS label: accents are folded
// (é → e), runs of anything else collapse into one hyphen and the result
// never starts or ends with a hyphen. The output may be empty, so callers
// must still validate it against their reserved list.
func Make(s string, opts ...Option) string {
	cfg := &config{maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(cfg)
	}

	for old, repl := range cfg.customReplace {
		s = strings.ReplaceAll(s, old, repl)
	}

	s = fold(s)

	suffixLen := min(cfg.suffixLength, cfg.maxLength)
	bodyMax := cfg.maxLength
	if suffixLen > 0 {
		bodyMax = cfg.maxLength - suffixLen - 1
	}

	var b strings.Builder
	b.Grow(len(s))
	lastWasSep := true
	for _, r := range strings.ToLower(s) {
		if b.Len() >= bodyMax {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastWasSep = false
			continue
		}
		if !lastWasSep {
			b.WriteRune(separator)
			lastWasSep = true
		}
	}
	body := strings.TrimRight(b.String(), string(separator))

	if suffixLen <= 0 {
		return body
	}
	suffix := randomSuffix(suffixLen)
	if body == "" {
		return suffix
	}
	return body + string(separator) + suffix
}

// fold strips combining marks after canonical decomposition and maps a few
// letters that do not decompose.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), runes.Map(foldRune), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func foldRune(r rune) rune {
	switch r {
	case 'ł', 'Ł':
		return 'l'
	case 'ø', 'Ø':
		return 'o'
	case 'đ', 'Đ':
		return 'd'
	case 'ß':
		return 's'
	case 'æ', 'Æ':
		return 'a'
	case 'œ', 'Œ':
		return 'o'
	}
	return r
}

func randomSuffix(n int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		for i := range b {
			b[i] = charset[i%len(charset)]
		}
		return string(b)
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
