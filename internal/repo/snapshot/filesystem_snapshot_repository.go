package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
)

// ErrInvalidSnapshotKey is returned when a session ID or store name would
// escape the repository base directory.
var ErrInvalidSnapshotKey = errors.New("invalid snapshot key")

// FileSystemSnapshotRepositoryConfig holds configuration for the
// filesystem-based snapshot repository.
type FileSystemSnapshotRepositoryConfig struct {
	// Basedir is the root directory for snapshot storage
	Basedir string `env:"BASEDIR" default:"var/storage/snapshot"`
}

// FileSystemSnapshotRepository implements Repository using one JSON file per
// session and store under Basedir. Files are written to a temporary name and
// renamed into place so a crashed write never leaves a truncated snapshot.
type FileSystemSnapshotRepository struct {
	cfg FileSystemSnapshotRepositoryConfig
	log logging.Logger
	m   *sync.Mutex
}

var _ Repository = (*FileSystemSnapshotRepository)(nil)

// FileSystemSnapshotRepositoryFactory creates a factory function that returns
// a new FileSystemSnapshotRepository.
// The factory function implements the RepositoryFactory type.
func FileSystemSnapshotRepositoryFactory(cfg FileSystemSnapshotRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewFileSystemSnapshotRepository(cfg)
	}
}

// NewFileSystemSnapshotRepository creates a new FileSystemSnapshotRepository
// with the given configuration and ensures the base directory exists.
// Returns an error if the base directory cannot be created.
func NewFileSystemSnapshotRepository(
	cfg FileSystemSnapshotRepositoryConfig,
) (*FileSystemSnapshotRepository, error) {
	log := logging.GetLogger("repo.snapshot.filesystem_snapshot_repository").With(
		logging.Group("repo", "basedir", cfg.Basedir),
	)

	if err := os.MkdirAll(cfg.Basedir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	return &FileSystemSnapshotRepository{
		cfg: cfg,
		log: log,
		m:   new(sync.Mutex),
	}, nil
}

// Store implements Repository.Store by writing the payload to a temporary
// file and renaming it over the snapshot file.
func (fsRepo *FileSystemSnapshotRepository) Store(
	ctx context.Context,
	sessionID domain.SessionID,
	name string,
	data []byte,
) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "store snapshot failed", "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "snapshot stored",
				logging.Group("snapshot", "session", sessionID.String(), "name", name),
			)
		}
	}()

	filename, err := fsRepo.getFilename(sessionID, name)
	if err != nil {
		return fmt.Errorf("get filename: %w", err)
	}

	fsRepo.m.Lock()
	defer fsRepo.m.Unlock()

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	tmpname := filename + ".tmp"
	if err := os.WriteFile(tmpname, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	if err := os.Rename(tmpname, filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// Fetch implements Repository.Fetch by reading the snapshot file if present.
func (fsRepo *FileSystemSnapshotRepository) Fetch(
	ctx context.Context,
	sessionID domain.SessionID,
	name string,
) ([]byte, bool, error) {
	filename, err := fsRepo.getFilename(sessionID, name)
	if err != nil {
		return nil, false, fmt.Errorf("get filename: %w", err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("read file: %w", err)
	}

	return data, true, nil
}

// Delete implements Repository.Delete by removing the snapshot file.
// A missing file is not an error.
func (fsRepo *FileSystemSnapshotRepository) Delete(
	ctx context.Context,
	sessionID domain.SessionID,
	name string,
) error {
	filename, err := fsRepo.getFilename(sessionID, name)
	if err != nil {
		return fmt.Errorf("get filename: %w", err)
	}

	fsRepo.m.Lock()
	defer fsRepo.m.Unlock()

	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}

// Close implements Repository.Close. The filesystem repository holds no
// resources beyond the base directory.
func (fsRepo *FileSystemSnapshotRepository) Close() error {
	return nil
}

func (fsRepo *FileSystemSnapshotRepository) getFilename(
	sessionID domain.SessionID,
	name string,
) (string, error) {
	session := sessionID.String()

	for _, part := range []string{session, name} {
		if part == "" || strings.ContainsAny(part, "/\\") || strings.Contains(part, "..") {
			return "", fmt.Errorf("%w: %q", ErrInvalidSnapshotKey, part)
		}
	}

	return filepath.Join(fsRepo.cfg.Basedir, name, session+".json"), nil
}
