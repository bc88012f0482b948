package flash

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAll(t *testing.T, s *Slot, data []byte) {
	t.Helper()
	n, err := s.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
}

func TestSlot_CommitInstallsImageAndKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firmware.bin")
	require.NoError(t, os.WriteFile(path, []byte("old image"), imagePerm))

	s := NewSlot(path, 0)
	require.NoError(t, s.Begin(9))
	writeAll(t, s, []byte("new "))
	writeAll(t, s, []byte("image"))
	require.NoError(t, s.Commit())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new image", string(got))

	backup, err := os.ReadFile(s.BackupPath())
	require.NoError(t, err)
	assert.Equal(t, "old image", string(backup))

	_, err = os.Stat(s.partialPath())
	assert.True(t, os.IsNotExist(err), "partial image must not remain after commit")
}

func TestSlot_FirstInstallWithoutExistingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "firmware.bin")
	s := NewSlot(path, 0)

	require.NoError(t, s.Begin(3))
	writeAll(t, s, []byte("abc"))
	require.NoError(t, s.Commit())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	_, err = os.Stat(s.BackupPath())
	assert.True(t, os.IsNotExist(err))
}

func TestSlot_AbortRemovesPartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "firmware.bin")
	require.NoError(t, os.WriteFile(path, []byte("current"), imagePerm))

	s := NewSlot(path, 0)
	require.NoError(t, s.Begin(100))
	writeAll(t, s, []byte("half"))
	require.NoError(t, s.Abort())

	_, err := os.Stat(s.partialPath())
	assert.True(t, os.IsNotExist(err))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "current", string(got), "abort leaves the active image untouched")

	require.NoError(t, s.Abort(), "abort without transaction is a no-op")
	require.NoError(t, s.Begin(1), "slot is reusable after abort")
	require.NoError(t, s.Abort())
}

func TestSlot_CommitIncompleteFails(t *testing.T) {
	s := NewSlot(filepath.Join(t.TempDir(), "firmware.bin"), 0)
	require.NoError(t, s.Begin(10))
	writeAll(t, s, []byte("12345"))

	require.ErrorIs(t, s.Commit(), ErrIncompleteImage)
	require.NoError(t, s.Abort())
	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestSlot_TransactionErrors(t *testing.T) {
	s := NewSlot(filepath.Join(t.TempDir(), "firmware.bin"), 16)

	_, err := s.Write([]byte("x"))
	require.ErrorIs(t, err, ErrNoTransaction)
	require.ErrorIs(t, s.Commit(), ErrNoTransaction)
	require.ErrorIs(t, s.Begin(0), ErrInvalidSize)
	require.ErrorIs(t, s.Begin(17), ErrImageTooLarge)

	require.NoError(t, s.Begin(4))
	require.ErrorIs(t, s.Begin(4), ErrTransactionOpen)

	n, err := s.Write([]byte("too long"))
	require.ErrorIs(t, err, ErrImageOverflow)
	assert.Equal(t, 4, n)
	require.NoError(t, s.Abort())
}

func TestSlot_FreeInstallableSpace(t *testing.T) {
	dir := t.TempDir()

	unbounded, err := NewSlot(filepath.Join(dir, "a.bin"), 0).FreeInstallableSpace()
	require.NoError(t, err)
	assert.Positive(t, unbounded)

	capped, err := NewSlot(filepath.Join(dir, "b.bin"), 4096).FreeInstallableSpace()
	require.NoError(t, err)
	assert.LessOrEqual(t, capped, uint64(4096))
}

func TestSlot_CheckWritable(t *testing.T) {
	s := NewSlot(filepath.Join(t.TempDir(), "firmware.bin"), 0)
	require.NoError(t, s.CheckWritable(context.Background()))
}
