package storage

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Local manages the on-disk data directory for job artifacts:
//
//	<root>/jobs/<id>/status.json   mirrored job record (survives the run)
//	<root>/jobs/<id>/work/         per-job working area (removed on success)
//	<root>/archives/<id>.zip       packaged output of a completed job
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	for _, dir := range []string{filepath.Join(abs, "jobs"), filepath.Join(abs, "archives")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return &Local{root: abs}, nil
}

func (l *Local) Root() string { return l.root }

func (l *Local) JobDir(id string) string {
	return filepath.Join(l.root, "jobs", id)
}

// WorkDir is the isolated working area for one job's intermediate artifacts.
// Generators write fixed filenames (index.html, style.css, ...), so every job
// gets its own directory to keep concurrent runs from clobbering each other.
func (l *Local) WorkDir(id string) string {
	return filepath.Join(l.JobDir(id), "work")
}

func (l *Local) StatusPath(id string) string {
	return filepath.Join(l.JobDir(id), "status.json")
}

func (l *Local) ArchivePath(id string) string {
	return filepath.Join(l.root, "archives", id+".zip")
}

// Open opens a file under the data directory along with metadata for serving.
func (l *Local) Open(path string) (*os.File, FileMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, FileMetadata{}, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, FileMetadata{}, fmt.Errorf("stat file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return f, FileMetadata{
		Size:        stat.Size(),
		ContentType: contentType,
		ModTime:     stat.ModTime(),
	}, nil
}

func (l *Local) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CleanStaleWorkDirs removes working areas left behind by a previous run.
// In-memory job state does not survive a restart, so any work/ directory on
// disk at startup belongs to a job that can no longer complete.
func (l *Local) CleanStaleWorkDirs() int {
	entries, err := os.ReadDir(filepath.Join(l.root, "jobs"))
	if err != nil {
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		workDir := l.WorkDir(entry.Name())
		if _, err := os.Stat(workDir); err != nil {
			continue
		}
		log.Info().Str("path", workDir).Msg("removing stale working area")
		if err := os.RemoveAll(workDir); err == nil {
			removed++
		}
	}
	return removed
}
