package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sjsage522/rankworker/internal/ranking"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func entryAt(i int) Entry {
	return Entry{
		Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		Averages: ranking.CompositeScore{
			Standard: floatPtr(float64(i)),
			Deluxe:   floatPtr(float64(i) + 0.5),
		},
	}
}

func TestFileStoreMissingIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "rank_history.json"))

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "rank_history.json"))

	written := Entry{
		Timestamp: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
		Averages:  ranking.CompositeScore{Standard: floatPtr(13.25)},
		RawResults: map[string]ranking.CountryRank{
			"us": {Standard: intPtr(12), Deluxe: intPtr(4)},
			"cn": {},
		},
	}

	saved, err := Record(store, written, DefaultCap)
	require.NoError(t, err)
	require.Len(t, saved, 1)

	loaded, err := store.Load()
	require.NoError(t, err)
	if diff := cmp.Diff([]Entry{written}, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	// Undefined composite is stored as null, not 0
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"deluxe": null`)
	assert.Nil(t, loaded[0].Averages.Deluxe)
}

func TestRecordEvictsOldestFirst(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "rank_history.json"))

	var all []Entry
	for i := 1; i <= 51; i++ {
		e := entryAt(i)
		all = append(all, e)
		saved, err := Record(store, e, 50)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(saved), 50)
	}

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 50)
	if diff := cmp.Diff(all[1:], loaded); diff != "" {
		t.Errorf("expected entries #2..#51 (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2.0, *loaded[0].Averages.Standard)
	assert.Equal(t, 51.0, *loaded[49].Averages.Standard)
}

func TestRecordSmallCap(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "h.json"))

	for i := 1; i <= 7; i++ {
		_, err := Record(store, entryAt(i), 3)
		require.NoError(t, err)
	}

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, 5.0, *loaded[0].Averages.Standard)
	assert.Equal(t, 7.0, *loaded[2].Averages.Standard)
}

func TestRecordCorruptHistoryStartsFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rank_history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"timestamp": "oops"`), 0o644))

	store := NewFileStore(path)
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrCorrupt)

	saved, err := Record(store, entryAt(1), DefaultCap)
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	// The unreadable file is kept next to the new one
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "rank_history.json.corrupt-") {
			backups++
		}
	}
	assert.Equal(t, 1, backups)
}

func TestFileStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	entries, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "h.json"))
	require.NoError(t, store.Save([]Entry{entryAt(1)}))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "h.json", files[0].Name())
}

type failingStore struct {
	saved []Entry
}

func (f *failingStore) Load() ([]Entry, error) { return nil, errors.New("permission denied") }
func (f *failingStore) Save(entries []Entry) error {
	f.saved = entries
	return nil
}

func TestRecordUnreadableStore(t *testing.T) {
	store := &failingStore{}
	saved, err := Record(store, entryAt(3), DefaultCap)
	require.NoError(t, err)
	assert.Len(t, saved, 1)
	assert.Len(t, store.saved, 1)
}

func TestTruncateAndPrevious(t *testing.T) {
	entries := []Entry{entryAt(1), entryAt(2), entryAt(3)}
	assert.Len(t, Truncate(entries, 5), 3)
	assert.Equal(t, 2.0, *Truncate(entries, 2)[0].Averages.Standard)

	assert.Nil(t, Previous(entries[:1]))
	assert.Equal(t, 2.0, *Previous(entries).Averages.Standard)
}
