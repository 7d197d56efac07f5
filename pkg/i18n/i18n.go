// Package i18n renders server generated text (notification titles, email
// subjects) in the recipient's language.
//
// Each language is a nested YAML file whose leaves become dotted keys:
//
//	notification:
//	  thread_title: "{{circle}} thread"   -> notification.thread_title
package i18n

import (
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used for unknown languages and missing keys.
const DefaultLanguage = "ja"

var supported = []string{"ja", "en"}

var (
	mu      sync.RWMutex
	catalog = map[string]map[string]string{}
)

// Load parses <lang>.yaml for every supported language and replaces the
// active catalog. Every language must define the same set of keys.
func Load(fsys fs.FS) error {
	next := make(map[string]map[string]string, len(supported))
	for _, lang := range supported {
		raw, err := fs.ReadFile(fsys, lang+".yaml")
		if err != nil {
			return fmt.Errorf("i18n: read %s: %w", lang, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return fmt.Errorf("i18n: parse %s: %w", lang, err)
		}
		flat := make(map[string]string)
		if err := flatten("", tree, flat); err != nil {
			return fmt.Errorf("i18n: %s: %w", lang, err)
		}
		next[lang] = flat
	}

	base := next[DefaultLanguage]
	for lang, msgs := range next {
		if missing := diffKeys(base, msgs); len(missing) > 0 {
			return fmt.Errorf("i18n: %s lacks keys %s", lang, strings.Join(missing, ", "))
		}
		if extra := diffKeys(msgs, base); len(extra) > 0 {
			return fmt.Errorf("i18n: %s has unknown keys %s", lang, strings.Join(extra, ", "))
		}
	}

	mu.Lock()
	catalog = next
	mu.Unlock()
	return nil
}

func IsSupported(lang string) bool {
	return slices.Contains(supported, lang)
}

// Localizer renders messages for one language.
type Localizer struct {
	lang string
}

// NewLocalizer falls back to DefaultLanguage for unsupported languages.
func NewLocalizer(lang string) *Localizer {
	if !IsSupported(lang) {
		lang = DefaultLanguage
	}
	return &Localizer{lang: lang}
}

func (l *Localizer) Lang() string { return l.lang }

// T returns the message for key, the default language's message when the
// key is absent, or the key itself.
func (l *Localizer) T(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if msg, ok := catalog[l.lang][key]; ok {
		return msg
	}
	if msg, ok := catalog[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// TWithParams is T with {{name}} placeholders filled from params.
func (l *Localizer) TWithParams(key string, params map[string]string) string {
	msg := l.T(key)
	if len(params) == 0 {
		return msg
	}
	pairs := make([]string, 0, 2*len(params))
	for k, v := range params {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %s: want string or mapping, got %T", key, v)
		}
	}
	return nil
}

// diffKeys lists keys of a that b lacks, sorted.
func diffKeys(a, b map[string]string) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
