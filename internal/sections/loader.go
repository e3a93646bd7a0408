// Package sections assembles the shell page: for every (container id,
// fragment path) pair it fetches the fragment and replaces the container's
// children with it, then hands the finished document to a ready callback.
package sections

import (
	"bytes"
	"context"
	"fmt"

	"github.com/edugate/sitecms/pkg/logger"
	"golang.org/x/net/html"
)

// Target pairs a container element id with the fragment injected into it.
type Target struct {
	ID   string
	Path string
}

// DefaultTargets is the site's fragment layout, in injection order.
var DefaultTargets = []Target{
	{ID: "hero-container", Path: "/sections/hero.html"},
	{ID: "hero-container2", Path: "/sections/hero sec.html"},
	{ID: "hero-container3", Path: "/sections/hero3.html"},
	{ID: "hero-container4", Path: "/sections/hero4.html"},
	{ID: "results-container", Path: "/sections/results.html"},
	{ID: "services-container", Path: "/sections/services.html"},
	{ID: "study-container", Path: "/sections/study.html"},
	{ID: "visas-container", Path: "/sections/visas.html"},
	{ID: "tech-container", Path: "/sections/tech.html"},
	{ID: "scholarship-banner-container", Path: "/sections/scholarship-banner.html"},
	{ID: "academy-tech-container", Path: "/sections/academy-tech.html"},
	{ID: "scholarship-container", Path: "/sections/scholarship.html"},
	{ID: "faq-container", Path: "/sections/faq.html"},
	{ID: "footer-container", Path: "/sections/footer.html"},
}

// ReadyFunc runs once every target has been attempted.
type ReadyFunc func(ctx context.Context, doc *html.Node) error

// Result records what a load cycle did with each target.
type Result struct {
	Injected []string
	// Skipped holds ids whose container was missing or whose fetch failed.
	Skipped []string
}

type Loader struct {
	fetcher Fetcher
	targets []Target
}

func NewLoader(f Fetcher, targets []Target) *Loader {
	if targets == nil {
		targets = DefaultTargets
	}
	return &Loader{fetcher: f, targets: targets}
}

// Load processes the targets in order, one fetch at a time. A container that
// is missing or a fetch that is not ok is skipped; a transport or parse error
// stops the cycle and is returned.
func (l *Loader) Load(ctx context.Context, doc *html.Node) (*Result, error) {
	res := &Result{}
	for _, t := range l.targets {
		container := ElementByID(doc, t.ID)
		if container == nil {
			res.Skipped = append(res.Skipped, t.ID)
			continue
		}
		body, ok, err := l.fetcher.Fetch(ctx, t.Path)
		if err != nil {
			return res, fmt.Errorf("fetch %s: %w", t.Path, err)
		}
		if !ok {
			res.Skipped = append(res.Skipped, t.ID)
			continue
		}
		if err := replaceChildren(container, body); err != nil {
			return res, fmt.Errorf("parse %s: %w", t.Path, err)
		}
		res.Injected = append(res.Injected, t.ID)
	}
	return res, nil
}

// Run loads every target and then calls ready. When Load fails the error is
// logged and returned and ready is not called.
func (l *Loader) Run(ctx context.Context, doc *html.Node, ready ReadyFunc) (*Result, error) {
	res, err := l.Load(ctx, doc)
	if err != nil {
		logger.Errorf("section load failed: %v", err)
		return res, err
	}
	if ready != nil {
		if err := ready(ctx, doc); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Assemble parses shell, runs the load cycle and renders the result.
func (l *Loader) Assemble(ctx context.Context, shell []byte, ready ReadyFunc) ([]byte, *Result, error) {
	doc, err := html.Parse(bytes.NewReader(shell))
	if err != nil {
		return nil, nil, fmt.Errorf("parse shell page: %w", err)
	}
	res, err := l.Run(ctx, doc, ready)
	if err != nil {
		return nil, res, err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, res, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), res, nil
}

// ElementByID returns the first element in document order whose id is id.
func ElementByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Namespace == "" && a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := ElementByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// replaceChildren swaps the container's children for the parsed fragment,
// the way assigning innerHTML does.
func replaceChildren(container *html.Node, fragment []byte) error {
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), container)
	if err != nil {
		return err
	}
	for c := container.FirstChild; c != nil; {
		next := c.NextSibling
		container.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return nil
}
