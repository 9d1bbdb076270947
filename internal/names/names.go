// Package names translates English transliterations of Hebrew first names to
// Hebrew script. LinkedIn shows names in English, but outreach templates may
// be written in Hebrew; a missing translation pauses the workflow for user
// input instead of sending a mixed-script message.
package names

import (
	"context"
	"strings"
	"unicode"
)

// Store looks up user-provided translations.
type Store interface {
	LookupTranslation(ctx context.Context, englishName string) (string, error)
}

// Translator resolves English first names to Hebrew script, checking the
// builtin table before user-provided translations.
type Translator struct {
	store Store
}

// NewTranslator creates a Translator backed by the given store. A nil store
// restricts lookups to the builtin table.
func NewTranslator(store Store) *Translator {
	return &Translator{store: store}
}

// Translate returns the Hebrew form of an English first name. The second
// return value is false when no translation is known; the caller should pause
// for user input rather than guess.
func (t *Translator) Translate(ctx context.Context, englishName string) (string, bool, error) {
	key := strings.ToLower(strings.TrimSpace(englishName))
	if key == "" {
		return "", false, nil
	}

	if hebrew, ok := builtinNames[key]; ok {
		return hebrew, true, nil
	}

	if t.store != nil {
		hebrew, err := t.store.LookupTranslation(ctx, key)
		if err != nil {
			return "", false, err
		}
		if hebrew != "" {
			return hebrew, true, nil
		}
	}

	return "", false, nil
}

// FirstName returns the first word of a full name.
func FirstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// HasHebrew reports whether s contains any Hebrew-script runes. Templates
// without Hebrew text never need name translation.
func HasHebrew(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hebrew, r) {
			return true
		}
	}
	return false
}
