// Package flash provides a file-backed firmware slot with transactional writes.
package flash

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/bnema/flashota/internal/logging"
)

const (
	// Suffix of the image being written.
	partialSuffix = ".partial"
	// Backup suffix for the previous image.
	backupSuffix = ".old"
	// File permission for the slot directory.
	dirPerm = 0o755
	// File permission for images.
	imagePerm = 0o644
)

var (
	// ErrTransactionOpen is returned by Begin while another transaction is open.
	ErrTransactionOpen = errors.New("flash transaction already open")
	// ErrNoTransaction is returned by Write and Commit without Begin.
	ErrNoTransaction = errors.New("no flash transaction open")
	// ErrInvalidSize is returned by Begin for a non-positive size.
	ErrInvalidSize = errors.New("invalid image size")
	// ErrImageTooLarge is returned by Begin when the image does not fit the slot.
	ErrImageTooLarge = errors.New("image larger than slot")
	// ErrImageOverflow is returned by Write past the declared size.
	ErrImageOverflow = errors.New("write past declared image size")
	// ErrIncompleteImage is returned by Commit before the declared size is written.
	ErrIncompleteImage = errors.New("image incomplete")
)

// Slot is the install target. The active image lives at path; a transaction
// writes path+".partial" and Commit swaps it in, keeping path+".old".
type Slot struct {
	path    string
	maxSize int64

	mu      sync.Mutex
	file    *os.File
	size    int64
	written int64
}

// NewSlot creates a slot for the image at path. maxSize <= 0 means the slot
// is only bounded by the filesystem.
func NewSlot(path string, maxSize int64) *Slot {
	return &Slot{path: path, maxSize: maxSize}
}

// Path returns the active image path.
func (s *Slot) Path() string { return s.path }

func (s *Slot) partialPath() string { return s.path + partialSuffix }

// BackupPath returns where the previous image is kept after a commit.
func (s *Slot) BackupPath() string { return s.path + backupSuffix }

// CheckWritable reports whether the slot directory accepts new images.
func (s *Slot) CheckWritable(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create slot directory: %w", err)
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		logging.FromContext(ctx).Debug().
			Str("path", dir).
			Err(err).
			Msg("slot directory is not writable")
		return fmt.Errorf("slot directory %s is not writable: %w", dir, err)
	}
	return nil
}

// Begin implements port.FlashWriter.
func (s *Slot) Begin(size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		return ErrTransactionOpen
	}
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if s.maxSize > 0 && size > s.maxSize {
		return fmt.Errorf("%w: %d > %d", ErrImageTooLarge, size, s.maxSize)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("failed to create slot directory: %w", err)
	}

	f, err := os.OpenFile(s.partialPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, imagePerm)
	if err != nil {
		return fmt.Errorf("failed to create partial image: %w", err)
	}

	// Reserve the blocks up front so a full disk fails here, not mid-download.
	if err := unix.Fallocate(int(f.Fd()), 0, 0, size); err != nil && !isFallocateUnsupported(err) {
		_ = f.Close()
		_ = os.Remove(s.partialPath())
		return fmt.Errorf("failed to reserve %d bytes: %w", size, err)
	}

	s.file = f
	s.size = size
	s.written = 0
	return nil
}

// Write implements port.FlashWriter. Bytes beyond the declared size are rejected.
func (s *Slot) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return 0, ErrNoTransaction
	}

	chunk := p
	var overflow error
	if remaining := s.size - s.written; int64(len(chunk)) > remaining {
		chunk = chunk[:remaining]
		overflow = ErrImageOverflow
	}

	n, err := s.file.Write(chunk)
	s.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("failed to write image: %w", err)
	}
	return n, overflow
}

// Commit implements port.FlashWriter. The image is synced and renamed into
// place; the previous image is kept as the backup.
func (s *Slot) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ErrNoTransaction
	}
	if s.written != s.size {
		return fmt.Errorf("%w: %d/%d bytes", ErrIncompleteImage, s.written, s.size)
	}

	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync image: %w", err)
	}
	if err := s.file.Close(); err != nil {
		s.file = nil
		_ = os.Remove(s.partialPath())
		return fmt.Errorf("failed to close image: %w", err)
	}
	s.file = nil

	if err := s.swap(); err != nil {
		_ = os.Remove(s.partialPath())
		return err
	}
	return syncDir(filepath.Dir(s.path))
}

// swap moves the active image to the backup and the partial image into place.
func (s *Slot) swap() error {
	backup := s.BackupPath()
	_ = os.Remove(backup)

	hadImage := true
	if err := os.Rename(s.path, backup); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to backup current image: %w", err)
		}
		hadImage = false
	}

	if err := os.Rename(s.partialPath(), s.path); err != nil {
		if hadImage {
			// Best effort restore; the caller reports the original failure.
			_ = os.Rename(backup, s.path)
		}
		return fmt.Errorf("failed to install new image: %w", err)
	}
	return nil
}

// Abort implements port.FlashWriter.
func (s *Slot) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	closeErr := s.file.Close()
	s.file = nil
	s.written = 0

	if err := os.Remove(s.partialPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove partial image: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close partial image: %w", closeErr)
	}
	return nil
}

// FreeInstallableSpace implements port.StorageInfo: the space available to a
// new image in the slot directory, capped by the slot size.
func (s *Slot) FreeInstallableSpace() (uint64, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return 0, fmt.Errorf("failed to create slot directory: %w", err)
	}

	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, fmt.Errorf("failed to stat slot filesystem: %w", err)
	}

	free := st.Bavail * uint64(st.Bsize) //nolint:gosec // Bsize is positive
	if s.maxSize > 0 && uint64(s.maxSize) < free {
		free = uint64(s.maxSize)
	}
	return free, nil
}

func isFallocateUnsupported(err error) bool {
	return errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EINVAL)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open slot directory: %w", err)
	}
	defer func() { _ = d.Close() }()

	if err := d.Sync(); err != nil && !errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("failed to sync slot directory: %w", err)
	}
	return nil
}
