package session

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structdraw/backend/internal/testutil"
	"github.com/structdraw/backend/internal/upload"
	"github.com/structdraw/backend/internal/workspace"
)

func newTestManager(t *testing.T, max int) (*Manager, *testutil.MockStorage) {
	t.Helper()
	store := testutil.NewMockStorage()
	gate := upload.NewGate(store)
	m := NewManager(func(id string) *workspace.Workspace {
		return workspace.New(id, workspace.Options{Assets: gate})
	}, max)
	t.Cleanup(m.CloseAll)
	return m, store
}

func TestManager_CreateGetDelete(t *testing.T) {
	m, _ := newTestManager(t, 0)

	ws, err := m.Create()
	require.NoError(t, err)
	assert.Len(t, ws.ID(), 36)

	got, err := m.Get(ws.ID())
	require.NoError(t, err)
	assert.Same(t, ws, got)

	require.NoError(t, m.Delete(ws.ID()))
	_, err = m.Get(ws.ID())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	assert.ErrorIs(t, m.Delete(ws.ID()), ErrNotFound)
}

func TestManager_DeleteReleasesAsset(t *testing.T) {
	m, store := newTestManager(t, 0)
	ws, err := m.Create()
	require.NoError(t, err)

	asset, err := ws.Upload("plan.png", "image/png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	require.True(t, store.Has(asset.Ref))

	require.NoError(t, m.Delete(ws.ID()))
	assert.False(t, store.Has(asset.Ref))
}

func TestManager_EvictsOldestIdleAtCapacity(t *testing.T) {
	m, _ := newTestManager(t, 2)

	first, err := m.Create()
	require.NoError(t, err)
	second, err := m.Create()
	require.NoError(t, err)

	// Both recently used: nothing can be evicted.
	_, err = m.Create()
	assert.Error(t, err)

	m.touchAt(first.ID(), time.Now().Add(-time.Hour))
	m.touchAt(second.ID(), time.Now().Add(-2*time.Hour))

	third, err := m.Create()
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count())

	_, err = m.Get(second.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(first.ID())
	assert.NoError(t, err)
	_, err = m.Get(third.ID())
	assert.NoError(t, err)
}

func TestManager_CleanupOldSessions(t *testing.T) {
	m, _ := newTestManager(t, 0)

	stale, _ := m.Create()
	streaming, _ := m.Create()
	fresh, _ := m.Create()

	m.touchAt(stale.ID(), time.Now().Add(-time.Hour))
	m.touchAt(streaming.ID(), time.Now().Add(-time.Hour))
	_, unsubscribe := streaming.Subscribe()
	defer unsubscribe()

	removed := m.CleanupOldSessions(SessionMaxAge)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, m.Count())

	_, err := m.Get(stale.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestManager_List(t *testing.T) {
	m, _ := newTestManager(t, 0)
	a, _ := m.Create()
	b, _ := m.Create()
	m.touchAt(a.ID(), time.Now().Add(-time.Minute))

	_, err := b.Upload("plan.pdf", "application/pdf", bytes.NewReader([]byte("%PDF")))
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID(), list[0].ID)
	assert.Equal(t, "plan.pdf", list[0].AssetName)
	assert.Equal(t, a.ID(), list[1].ID)
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestManager_LogPrefix(t *testing.T) {
	m, _ := newTestManager(t, 1)

	out := captureStdout(t, func() {
		first, err := m.Create()
		require.NoError(t, err)
		m.touchAt(first.ID(), time.Now().Add(-time.Hour))
		_, err = m.Create()
		require.NoError(t, err)
	})
	assert.Contains(t, out, "[Sessions] Created workspace")
	assert.Contains(t, out, "[Sessions] Evicted idle workspace")
	assert.NotContains(t, out, "[Manager]")
}
