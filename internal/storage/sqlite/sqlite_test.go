package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"foodcourt_back_end/internal/storage"
	"foodcourt_back_end/internal/storage/sqlite"
	"foodcourt_back_end/internal/storage/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		s, err := sqlite.Open(filepath.Join(t.TempDir(), "foodcourt.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	require.Error(t, err)
}
