package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/gashu/internal/adapters/file"
	"github.com/aretw0/gashu/pkg/domain"
	"github.com/aretw0/gashu/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.SessionStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_FlatLayoutOnDisk(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)

	s := domain.NewSession()
	s.RequestedDep = "현재 위치"
	require.NoError(t, store.Save(context.Background(), "u1", s))

	data, err := os.ReadFile(filepath.Join(dir, "u1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"requested_dep": "현재 위치"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not survive a save")
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	users, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestFileStore_EmptyUserID(t *testing.T) {
	store := file.New(t.TempDir())
	assert.Error(t, store.Save(context.Background(), "", domain.NewSession()))
	_, err := store.Load(context.Background(), "")
	assert.Error(t, err)
}
