package pipeline

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Files every archive must carry; the zip is useless without them.
var requiredArtifacts = []string{"index.html", "style.css", "script.js"}

// writeArchive packages a job's final artifacts into a zip at dst. Required
// files must exist; generated images are included when present. The archive
// is written to a temp file first so a half-written zip never shadows the
// download path.
func writeArchive(dst, workDir string) error {
	tmp := dst + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	if err := addArchiveFiles(zw, workDir); err != nil {
		_ = zw.Close()
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close archive: %w", err)
	}

	return os.Rename(tmp, dst)
}

func addArchiveFiles(zw *zip.Writer, workDir string) error {
	for _, name := range requiredArtifacts {
		if err := addArchiveFile(zw, workDir, name); err != nil {
			return err
		}
	}

	// Generated images ride along when present.
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return fmt.Errorf("scan working area: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".jpg", ".jpeg", ".png", ".webp":
			if err := addArchiveFile(zw, workDir, entry.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}

func addArchiveFile(zw *zip.Writer, workDir, name string) error {
	src, err := os.Open(filepath.Join(workDir, name))
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	defer func() { _ = src.Close() }()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("archive entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("archive copy %s: %w", name, err)
	}
	return nil
}
