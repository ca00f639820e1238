package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsID_DeterministicAndLinkDerived(t *testing.T) {
	link := "https://www.passion.ru/news/some-article/"

	assert.Equal(t, NewsID(link), NewsID(link))
	assert.Len(t, NewsID(link), 16)
	assert.NotEqual(t, NewsID(link), NewsID(link+"x"))
}

func TestFileLedger_RecordAndHas(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "posted.json")

	led, err := NewFile(path)
	require.NoError(t, err)

	link := "https://www.passion.ru/news/a/"
	has, err := led.Has(ctx, link)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, led.Record(ctx, NewsID(link), "Title", link))

	has, err = led.Has(ctx, link)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestFileLedger_DoubleRecordKeepsOneEntry(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "posted.json")

	led, err := NewFile(path)
	require.NoError(t, err)

	link := "https://www.passion.ru/news/a/"
	require.NoError(t, led.Record(ctx, NewsID(link), "Title", link))
	require.NoError(t, led.Record(ctx, NewsID(link), "Other title", link))

	// Reload from disk and count.
	reloaded, err := NewFile(path)
	require.NoError(t, err)
	assert.Len(t, reloaded.items, 1)
	assert.Equal(t, "Title", reloaded.items[link].Title)
}

func TestFileLedger_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "posted.json")

	led, err := NewFile(path)
	require.NoError(t, err)
	link := "https://www.passion.ru/news/b/"
	require.NoError(t, led.Record(ctx, NewsID(link), "Title", link))

	reloaded, err := NewFile(path)
	require.NoError(t, err)
	has, err := reloaded.Has(ctx, link)
	require.NoError(t, err)
	assert.True(t, has)
}
