// Package i18n holds the form's message catalogs and the translator used by
// the markup builder and notifications.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when no locale is requested.
const DefaultLocale = "en"

var (
	// ErrMissingTranslation reports a key absent from the locale and the
	// fallback locale.
	ErrMissingTranslation = errors.New("i18n: missing translation")
	// ErrUnknownLocale reports a locale without a catalog.
	ErrUnknownLocale = errors.New("i18n: unknown locale")
)

//go:embed locales/*.yaml
var embedded embed.FS

// Translator resolves message keys for a locale. Args are applied with
// fmt.Sprintf when present.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// Catalog is a set of flattened message tables keyed by locale.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string
	fallback string
}

// NewCatalog returns an empty catalog that falls back to DefaultLocale.
func NewCatalog() *Catalog {
	return &Catalog{
		messages: make(map[string]map[string]string),
		fallback: DefaultLocale,
	}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog built from the embedded locale files.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog = NewCatalog()
		defaultErr = defaultCatalog.LoadFS(embedded, "locales")
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for package initialisation.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// SetFallback changes the locale consulted when a key is missing.
func (c *Catalog) SetFallback(locale string) {
	c.mu.Lock()
	c.fallback = normalize(locale)
	c.mu.Unlock()
}

// LoadFS reads every "<locale>.yaml" file in dir.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("i18n: read %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		ext := path.Ext(name)
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("i18n: read %s: %w", name, err)
		}
		if err := c.Load(strings.TrimSuffix(name, ext), data); err != nil {
			return err
		}
	}
	return nil
}

// Load merges a YAML document of nested maps into locale. Nested keys are
// joined with dots.
func (c *Catalog) Load(locale string, data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", locale, err)
	}
	flat := make(map[string]string)
	flatten("", doc, flat)

	locale = normalize(locale)
	c.mu.Lock()
	defer c.mu.Unlock()
	table := c.messages[locale]
	if table == nil {
		table = make(map[string]string, len(flat))
		c.messages[locale] = table
	}
	for k, v := range flat {
		table[k] = v
	}
	return nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for key, value := range in {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case nil:
			out[full] = ""
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

// Locales lists the loaded locales in sorted order.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.messages))
	for locale := range c.messages {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Has reports whether locale has a catalog.
func (c *Catalog) Has(locale string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.messages[normalize(locale)]
	return ok
}

// Translate implements Translator. A regional locale such as "ru-RU" falls
// back to "ru", then to the catalog fallback.
func (c *Catalog) Translate(locale, key string, args ...any) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrMissingTranslation
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, candidate := range c.candidates(locale) {
		table, ok := c.messages[candidate]
		if !ok {
			continue
		}
		if msg, ok := table[key]; ok {
			if len(args) > 0 {
				msg = fmt.Sprintf(msg, args...)
			}
			return msg, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrMissingTranslation, key, locale)
}

func (c *Catalog) candidates(locale string) []string {
	locale = normalize(locale)
	var out []string
	if locale != "" {
		out = append(out, locale)
		if base, _, ok := strings.Cut(locale, "-"); ok {
			out = append(out, base)
		}
	}
	if c.fallback != "" && c.fallback != locale {
		out = append(out, c.fallback)
	}
	return out
}

func normalize(locale string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
}

// Localizer binds a translator to one locale.
type Localizer struct {
	Translator Translator
	Locale     string
}

// Text returns the translation of key, or key itself when it is missing.
func (l Localizer) Text(key string, args ...any) string {
	if l.Translator == nil {
		return key
	}
	msg, err := l.Translator.Translate(l.Locale, key, args...)
	if err != nil || strings.TrimSpace(msg) == "" {
		return key
	}
	return msg
}

// Messages resolves keys into a map suitable for template data.
func (l Localizer) Messages(keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		out[key] = l.Text(key)
	}
	return out
}
