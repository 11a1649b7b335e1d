package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// BaseLanguage is the catalog every other locale falls back to.
const BaseLanguage = "en"

// Translator resolves a text id to display text.
type Translator interface {
	Translate(key string) string
}

// Language describes one selectable interface language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supported = []Language{
	{Code: "en", Name: "English"},
	{Code: "ha", Name: "Hausa"},
	{Code: "ig", Name: "Igbo"},
	{Code: "yo", Name: "Yorùbá"},
}

// SupportedLanguages lists the languages offered at the language gate.
func SupportedLanguages() []Language {
	return append([]Language(nil), supported...)
}

type catalogFile struct {
	Locale   string            `json:"locale"`
	Messages map[string]string `json:"messages"`
}

// Bundle holds the message catalogs keyed by language code.
type Bundle struct {
	catalogs map[string]map[string]string
	matcher  language.Matcher
}

//go:embed locales/*.json
var embeddedFS embed.FS

// LoadEmbedded loads the catalogs compiled into the binary.
func LoadEmbedded() (*Bundle, error) {
	return Load(embeddedFS)
}

// LoadWithOverlay loads the embedded catalogs, then dir/locales/*.json on top.
// An empty dir is the same as LoadEmbedded.
func LoadWithOverlay(dir string) (*Bundle, error) {
	if dir == "" {
		return LoadEmbedded()
	}
	return Load(embeddedFS, os.DirFS(dir))
}

// Load reads locales/*.json from each filesystem in order. Later files override keys
// from earlier ones, so an operator directory can patch the embedded catalogs.
func Load(filesystems ...fs.FS) (*Bundle, error) {
	tags := make([]language.Tag, 0, len(supported))
	for _, lang := range supported {
		tags = append(tags, language.Make(lang.Code))
	}

	b := &Bundle{
		catalogs: make(map[string]map[string]string),
		matcher:  language.NewMatcher(tags),
	}

	for _, fsys := range filesystems {
		if fsys == nil {
			continue
		}
		paths, err := fs.Glob(fsys, "locales/*.json")
		if err != nil {
			return nil, fmt.Errorf("glob locale catalogs: %w", err)
		}
		sort.Strings(paths)
		for _, p := range paths {
			if err := b.addFile(fsys, p); err != nil {
				return nil, err
			}
		}
	}

	if _, ok := b.catalogs[BaseLanguage]; !ok {
		return nil, fmt.Errorf("base language %s is not defined in catalogs", BaseLanguage)
	}
	return b, nil
}

func (b *Bundle) addFile(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return fmt.Errorf("read catalog %s: %w", p, err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog %s: %w", p, err)
	}

	locale := strings.TrimSpace(file.Locale)
	fromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", p)
	}
	if locale != fromPath {
		return fmt.Errorf("catalog %s: locale %q must match file name %q", p, locale, fromPath)
	}

	messages, ok := b.catalogs[locale]
	if !ok {
		messages = make(map[string]string, len(file.Messages))
		b.catalogs[locale] = messages
	}
	for key, value := range file.Messages {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", p)
		}
		messages[trimmed] = value
	}
	return nil
}

// Match resolves a user-supplied language tag (e.g. "yo-NG") to a supported code.
func (b *Bundle) Match(raw string) (string, bool) {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	_, index, confidence := b.matcher.Match(tag)
	if confidence == language.No {
		return "", false
	}
	return supported[index].Code, true
}

// Translator returns a lookup bound to code with base-language fallback.
func (b *Bundle) Translator(code string) Translator {
	return localeTranslator{
		primary: b.catalogs[code],
		base:    b.catalogs[BaseLanguage],
	}
}

type localeTranslator struct {
	primary map[string]string
	base    map[string]string
}

// Translate falls back to the base catalog, then to the raw key.
func (t localeTranslator) Translate(key string) string {
	if value, ok := t.primary[key]; ok && value != "" {
		return value
	}
	if value, ok := t.base[key]; ok && value != "" {
		return value
	}
	return key
}
