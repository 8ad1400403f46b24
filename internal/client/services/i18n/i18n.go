// Package i18n resolves dotted translation keys against embedded
// per-language dictionaries. Lookups that miss in the requested language
// fall back to the default language; keys missing there too resolve to
// the raw key string so the UI never renders an empty label.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/readyinterview/client-go/internal/common"
)

//go:embed locales/*.json
var localeFS embed.FS

// dictionary is a nested map as decoded from a locale file. Leaves are
// strings; every other node is another map.
type dictionary map[string]any

// Resolver translates keys for a set of loaded languages.
type Resolver struct {
	langs       map[string]dictionary
	defaultLang string
}

// Params are named substitution values for {placeholder} markers.
type Params map[string]string

// NewResolver loads every embedded locale. The default language must be
// among them.
func NewResolver(defaultLang string) (*Resolver, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales: %w", err)
	}
	langs := make(map[string]dictionary, len(entries))
	for _, e := range entries {
		code := strings.TrimSuffix(e.Name(), ".json")
		raw, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", code, err)
		}
		var d dictionary
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", code, err)
		}
		langs[code] = d
	}
	if _, ok := langs[defaultLang]; !ok {
		return nil, fmt.Errorf("default language %q has no dictionary", defaultLang)
	}
	return &Resolver{langs: langs, defaultLang: defaultLang}, nil
}

// MustNewResolver is NewResolver for wiring paths where the embedded
// dictionaries are known good.
func MustNewResolver(defaultLang string) *Resolver {
	r, err := NewResolver(defaultLang)
	if err != nil {
		panic(err)
	}
	return r
}

// Languages returns the loaded language codes, sorted.
func (r *Resolver) Languages() []string {
	out := make([]string, 0, len(r.langs))
	for code := range r.langs {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Has reports whether a dictionary exists for the language code.
func (r *Resolver) Has(lang string) bool {
	_, ok := r.langs[lang]
	return ok
}

// T resolves key in lang. Missing language or missing key falls back to
// the default language; a miss there returns the raw key. Placeholders
// of the form {name} are replaced from params.
func (r *Resolver) T(lang, key string, params Params) string {
	msg, ok := r.lookup(lang, key)
	if !ok && lang != r.defaultLang {
		msg, ok = r.lookup(r.defaultLang, key)
	}
	if !ok {
		return key
	}
	return substitute(msg, params)
}

func (r *Resolver) lookup(lang, key string) (string, bool) {
	d, ok := r.langs[lang]
	if !ok {
		return "", false
	}
	var node any = map[string]any(d)
	for _, seg := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		node, ok = m[seg]
		if !ok {
			return "", false
		}
	}
	s, ok := node.(string)
	return s, ok
}

func substitute(msg string, params Params) string {
	if len(params) == 0 || !strings.ContainsRune(msg, '{') {
		return msg
	}
	pairs := make([]string, 0, len(params)*2)
	for name, val := range params {
		pairs = append(pairs, "{"+name+"}", val)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// DefaultResolver builds a resolver on the application default language.
func DefaultResolver() (*Resolver, error) {
	return NewResolver(common.DefaultLanguage)
}
