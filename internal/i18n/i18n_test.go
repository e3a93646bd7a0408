package i18n

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type mapSource struct {
	files map[string]string
	err   error
	calls int
}

func (m *mapSource) Fetch(ctx context.Context, path string) ([]byte, bool, error) {
	m.calls++
	if m.err != nil {
		return nil, false, m.err
	}
	b, ok := m.files[path]
	if !ok {
		return nil, false, nil
	}
	return []byte(b), true, nil
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, html.Render(&sb, n))
	return sb.String()
}

func TestNormalize(t *testing.T) {
	tr := New(DefaultConfig(), &mapSource{})
	require.Equal(t, "az", tr.Normalize("AZE"))
	require.Equal(t, "en", tr.Normalize("ENG"))
	require.Equal(t, "en", tr.Normalize("usa"))
	require.Equal(t, "en", tr.Normalize("en"))
	require.Equal(t, "az", tr.Normalize("FRA"))
	require.Equal(t, "az", tr.Normalize(""))
}

func TestLoad_CachesSuccessOnly(t *testing.T) {
	src := &mapSource{files: map[string]string{"/en.json": `{"hero.title":"Hello"}`}}
	tr := New(DefaultConfig(), src)
	ctx := context.Background()

	d := tr.Load(ctx, "en")
	require.Equal(t, "Hello", d["hero.title"])
	tr.Load(ctx, "en")
	require.Equal(t, 1, src.calls)

	require.Empty(t, tr.Load(ctx, "az"))
	require.Empty(t, tr.Load(ctx, "az"))
	require.Equal(t, 3, src.calls)
}

func TestLoad_ErrorsYieldEmpty(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, New(DefaultConfig(), &mapSource{err: errors.New("offline")}).Load(ctx, "en"))
	require.Empty(t, New(DefaultConfig(), &mapSource{files: map[string]string{"/en.json": "{"}}).Load(ctx, "en"))
}

func TestSetLanguage_RewritesTaggedNodes(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><body>
<h1 data-i18n-key="hero.title">Salam <b>dünya</b></h1>
<p data-i18n-key="hero.count">3</p>
<p data-i18n-key="missing">keep</p>
<span>untagged</span>
</body></html>`))
	require.NoError(t, err)

	src := &mapSource{files: map[string]string{"/en.json": `{"hero.title":"Hello <world>","hero.count":3}`}}
	n := New(DefaultConfig(), src).SetLanguage(context.Background(), doc, "ENG")
	require.Equal(t, 1, n)

	out := render(t, doc)
	require.Contains(t, out, `<h1 data-i18n-key="hero.title">Hello &lt;world&gt;</h1>`)
	require.Contains(t, out, `<p data-i18n-key="hero.count">3</p>`)
	require.Contains(t, out, `<p data-i18n-key="missing">keep</p>`)
}
