// Package i18n swaps the text of elements tagged with data-i18n-key for the
// entry of a per-language JSON dictionary.
//
// A Translator belongs to one page controller: its dictionary cache lives and
// dies with it, so nothing is shared between requests.
package i18n

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/edugate/sitecms/pkg/logger"
	"golang.org/x/net/html"
)

// KeyAttr is the attribute naming an element's dictionary key.
const KeyAttr = "data-i18n-key"

// Source loads dictionary files by site path. It has the same shape as
// sections.Fetcher so either fetcher can be passed in.
type Source interface {
	Fetch(ctx context.Context, path string) (body []byte, ok bool, err error)
}

// Dictionary maps keys to translated text. Non-string values are ignored
// when applying.
type Dictionary map[string]any

// Config drives language selection.
type Config struct {
	// LanguageMap maps switcher labels (AZE, ENG, ...) to dictionary codes.
	LanguageMap map[string]string
	// DefaultLanguage is the label used when a label is unknown.
	DefaultLanguage string
	// PathFor returns the site path of a code's dictionary.
	PathFor func(code string) string
}

// DefaultConfig is the bilingual Azerbaijani/English setup.
func DefaultConfig() Config {
	return Config{
		LanguageMap: map[string]string{
			"AZE": "az",
			"USA": "en",
			"ENG": "en",
		},
		DefaultLanguage: "AZE",
		PathFor:         func(code string) string { return "/" + code + ".json" },
	}
}

type Translator struct {
	cfg   Config
	src   Source
	mu    sync.Mutex
	cache map[string]Dictionary
}

func New(cfg Config, src Source) *Translator {
	if cfg.PathFor == nil {
		cfg.PathFor = DefaultConfig().PathFor
	}
	return &Translator{cfg: cfg, src: src, cache: make(map[string]Dictionary)}
}

// Normalize maps a switcher label to a dictionary code, falling back to the
// default label's code. Codes themselves ("az", "en") pass through.
func (t *Translator) Normalize(label string) string {
	if code, ok := t.cfg.LanguageMap[strings.ToUpper(strings.TrimSpace(label))]; ok {
		return code
	}
	for _, code := range t.cfg.LanguageMap {
		if strings.EqualFold(code, label) {
			return code
		}
	}
	return t.cfg.LanguageMap[t.cfg.DefaultLanguage]
}

// Load returns the dictionary for code. Successful loads are cached; a
// failed load is logged and yields an empty dictionary that is not cached.
func (t *Translator) Load(ctx context.Context, code string) Dictionary {
	t.mu.Lock()
	if d, ok := t.cache[code]; ok {
		t.mu.Unlock()
		return d
	}
	t.mu.Unlock()

	d, err := t.fetch(ctx, code)
	if err != nil {
		logger.Errorf("i18n: %v", err)
		return Dictionary{}
	}
	t.mu.Lock()
	t.cache[code] = d
	t.mu.Unlock()
	return d
}

func (t *Translator) fetch(ctx context.Context, code string) (Dictionary, error) {
	path := t.cfg.PathFor(code)
	body, ok, err := t.src.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("unable to fetch %s", path)
	}
	var d Dictionary
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if d == nil {
		d = Dictionary{}
	}
	return d, nil
}

// SetLanguage resolves label, loads its dictionary and applies it to doc.
// It returns the number of elements rewritten.
func (t *Translator) SetLanguage(ctx context.Context, doc *html.Node, label string) int {
	return Apply(doc, t.Load(ctx, t.Normalize(label)))
}

// Apply replaces the content of every element carrying KeyAttr whose key has
// a string translation in dict.
func Apply(doc *html.Node, dict Dictionary) int {
	n := 0
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if key, ok := attr(node, KeyAttr); ok {
				if s, ok := dict[key].(string); ok {
					setText(node, s)
					n++
					return
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return n
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setText(n *html.Node, s string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}
