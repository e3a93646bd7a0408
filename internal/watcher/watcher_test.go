package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edugate/sitecms/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestIsFragment(t *testing.T) {
	require.True(t, IsFragment("/site/sections/hero.html"))
	require.True(t, IsFragment("sections/NAV.HTML"))
	require.False(t, IsFragment("sections/.hero.html"))
	require.False(t, IsFragment("sections/hero.html.swp"))
	require.False(t, IsFragment("sections/notes.txt"))
}

func TestWatcher_DebouncesFragmentChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, 200*time.Millisecond)
	require.NoError(t, err)

	got := make(chan []Change, 4)
	w.AddHandler(func(c []Change) { got <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	before := testutil.ToFloat64(metrics.FragmentChanges.WithLabelValues("created")) +
		testutil.ToFloat64(metrics.FragmentChanges.WithLabelValues("modified"))

	p := filepath.Join(dir, "tech.html")
	require.NoError(t, os.WriteFile(p, []byte("<p>a</p>"), 0o644))
	require.NoError(t, os.WriteFile(p, []byte("<p>b</p>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644))

	select {
	case batch := <-got:
		require.Len(t, batch, 1)
		require.Equal(t, p, batch[0].Path)
		require.Contains(t, []string{"created", "modified"}, batch[0].Event)
	case <-time.After(5 * time.Second):
		t.Fatal("no fragment change reported")
	}

	after := testutil.ToFloat64(metrics.FragmentChanges.WithLabelValues("created")) +
		testutil.ToFloat64(metrics.FragmentChanges.WithLabelValues("modified"))
	require.Equal(t, before+1, after)
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"), time.Millisecond)
	require.Error(t, err)
}
