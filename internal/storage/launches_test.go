package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/tagcube/internal/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "tagcube.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(scanID int64, domain string, at time.Time) *models.LaunchRecord {
	rec := models.NewLaunchRecord(
		&models.Scan{ID: scanID, Href: "/1.0/scans/1"},
		"http://"+domain+"/", domain, "full_audit", []string{"/"},
	)
	rec.LaunchedAt = at
	return rec
}

func TestSaveAndGetLaunch(t *testing.T) {
	store := openStore(t)
	rec := record(7, "a.com", time.Now())

	require.NoError(t, store.SaveLaunch(rec))

	got, err := store.GetLaunch(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ScanID)
	assert.Equal(t, "a.com", got.Domain)
	assert.Equal(t, []string{"/"}, got.Paths)

	_, err = store.GetLaunch("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLaunchRequiresID(t *testing.T) {
	store := openStore(t)
	assert.Error(t, store.SaveLaunch(&models.LaunchRecord{}))
}

func TestListLaunchesNewestFirst(t *testing.T) {
	store := openStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	older := record(1, "a.com", base)
	newer := record(2, "A.com", base.Add(time.Hour))
	other := record(3, "b.com", base.Add(2*time.Hour))
	for _, r := range []*models.LaunchRecord{older, newer, other} {
		require.NoError(t, store.SaveLaunch(r))
	}
	// saving twice must not duplicate the index entry
	require.NoError(t, store.SaveLaunch(older))

	recs, err := store.ListLaunches("a.com")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(2), recs[0].ScanID)
	assert.Equal(t, int64(1), recs[1].ScanID)

	all, err := store.ListLaunches("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ScanID)

	none, err := store.ListLaunches("c.com")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindByScanID(t *testing.T) {
	store := openStore(t)
	rec := record(42, "a.com", time.Now())
	require.NoError(t, store.SaveLaunch(rec))

	got, err := store.FindByScanID(42)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = store.FindByScanID(43)
	assert.ErrorIs(t, err, ErrNotFound)
}
