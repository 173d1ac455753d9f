package library

import (
	"bytes"
	"strings"
)

// Item is what songs and albums have in common for ordering and search.
type Item interface {
	Handle() Handle
	// SortKey is a collation key; compare with bytes.Compare.
	SortKey() []byte
	// SearchKey is the lowercased text matched by FitsCriteria.
	SearchKey() string
	// Public reports whether the item should be shown to users.
	Public() bool
}

// CompareItems orders items by sort key. A nil item orders after any
// present one.
func CompareItems(a, b Item) int {
	switch {
	case isNil(a) && isNil(b):
		return 0
	case isNil(a):
		return 1
	case isNil(b):
		return -1
	}
	return bytes.Compare(a.SortKey(), b.SortKey())
}

func isNil(it Item) bool {
	switch v := it.(type) {
	case nil:
		return true
	case *Song:
		return v == nil
	case *Album:
		return v == nil
	}
	return false
}

// FitsCriteria reports whether it is public and its search key contains
// every token.
func FitsCriteria(it Item, tokens []string) bool {
	if isNil(it) || !it.Public() {
		return false
	}
	key := it.SearchKey()
	for _, tok := range tokens {
		if !strings.Contains(key, strings.ToLower(tok)) {
			return false
		}
	}
	return true
}
