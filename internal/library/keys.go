package library

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Leading words moved to the end of artist names in album sort keys.
var sortPrefixes = []string{"the", "dj"}

var collator = struct {
	mu  sync.Mutex
	c   *collate.Collator
	buf collate.Buffer
}{
	c: collate.New(language.Und, collate.IgnoreCase),
}

// SetSortLocale switches the collation used for sort keys. Keys already
// cached keep the old collation, so call it before loading.
func SetSortLocale(locale string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("sort locale %q: %w", locale, err)
	}

	collator.mu.Lock()
	defer collator.mu.Unlock()
	collator.c = collate.New(tag, collate.IgnoreCase)
	return nil
}

func sortKey(s string) []byte {
	collator.mu.Lock()
	defer collator.mu.Unlock()

	key := collator.c.KeyFromString(&collator.buf, s)
	out := make([]byte, len(key))
	copy(out, key)
	collator.buf.Reset()
	return out
}

// SearchKey lowercases s and keeps only letters, digits and whitespace.
// When stripping changed anything the raw lowercased text is appended, so
// both "acdc" and "ac/dc" match.
func SearchKey(s string) string {
	lower := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lower))
	different := false
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		different = true
	}

	if different {
		return b.String() + " " + lower
	}
	return b.String()
}

// sortName lowercases name and moves a leading "the " or "dj " to the end.
func sortName(name string) string {
	lower := strings.ToLower(name)
	for _, prefix := range sortPrefixes {
		if rest, ok := strings.CutPrefix(lower, prefix+" "); ok {
			return rest + " " + prefix
		}
	}
	return lower
}

func joinKey(parts ...string) string {
	return strings.Join(parts, " ")
}
