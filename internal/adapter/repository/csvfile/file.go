package csvfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/srgjo27/hotel_reservation/internal/core/domain"
)

type record struct {
	fields []string
	line   int
}

// readRecords returns every non-blank record of the file. A missing file
// yields no records and no error.
func readRecords(path string) ([]record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrStorageUnavailable, path, err)
	}

	r := csv.NewReader(bytes.NewReader(keepQuotedCRLF(data)))
	r.FieldsPerRecord = -1

	var records []record
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrMalformedRecord, path, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrStorageUnavailable, path, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		line, _ := r.FieldPos(0)
		records = append(records, record{fields: rec, line: line})
	}
}

// writeAtomic replaces path with the given lines. The data goes to a
// temporary file in the same directory which is synced and renamed over
// the target, so readers see either the old or the new content.
func writeAtomic(path string, lines []string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", domain.ErrStorageUnavailable, path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", domain.ErrStorageUnavailable, tmpName, err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrStorageUnavailable, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", domain.ErrStorageUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrStorageUnavailable, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", domain.ErrStorageUnavailable, path, err)
	}
	committed = true
	syncDir(dir)
	return nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", domain.ErrStorageUnavailable, path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("%w: append %s: %w", domain.ErrStorageUnavailable, path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", domain.ErrStorageUnavailable, path, err)
	}
	return nil
}

// syncDir makes a rename durable on filesystems that need it. Not every
// platform allows fsync on a directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
