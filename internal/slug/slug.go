// Package slug derives URL slugs from recipe titles and picks a free one.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a title has no alphanumeric characters at all.
const Fallback = "recipe"

// MaxProbes bounds how many suffixes Resolve tries before giving up.
const MaxProbes = 1000

// ErrExhausted is returned when no free slug was found within MaxProbes.
var ErrExhausted = errors.New("no free slug found")

var fold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify lower-cases s, strips diacritics and joins alphanumeric runs with '-'.
func Slugify(s string) string {
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	if b.Len() == 0 {
		return Fallback
	}
	return b.String()
}

// Checker reports whether a slug is already taken in the record store.
type Checker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Resolver finds the first free slug among base, base-1, base-2, ...
type Resolver struct {
	store Checker
}

// NewResolver creates a Resolver backed by store.
func NewResolver(store Checker) *Resolver {
	return &Resolver{store: store}
}

// Resolve slugifies candidate and probes the store for the first free variant.
//
// The probe is check-then-act: two concurrent callers can both see the same
// slug as free. The unique index on recipes.slug is what actually guarantees
// uniqueness; callers must handle the insert conflict and resolve again.
func (r *Resolver) Resolve(ctx context.Context, candidate string) (string, error) {
	base := Slugify(candidate)
	for i := 0; i < MaxProbes; i++ {
		s := base
		if i > 0 {
			s = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := r.store.SlugExists(ctx, s)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", s, err)
		}
		if !taken {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w for %q after %d probes", ErrExhausted, base, MaxProbes)
}
