// Package source reads measure rows exported from the analytics backend,
// either as Parquet (the backend's native answer format) or as JSON.
package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"ktkr.us/pkg/measureplot"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither Parquet nor
	// JSON.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoRows is returned when a file holds no rows at all.
	ErrNoRows = errors.New("no rows found")
)

// Load reads all rows of the file at path, picking the decoder from the
// extension: .parquet, .json (a single array) or .jsonl (one object per
// line).
func Load(ctx context.Context, path string) ([]measureplot.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows []measureplot.Row

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		rows, err = ReadParquet(f, info.Size())
		if err != nil {
			return nil, err
		}
	case ".json":
		rows, err = ReadJSON(f)
		if err != nil {
			return nil, err
		}
	case ".jsonl", ".ndjson":
		rows, err = ReadJSONLines(ctx, f)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRows)
	}
	return rows, nil
}

// ReadParquet decodes every row of a Parquet file.
func ReadParquet(r io.ReaderAt, size int64) ([]measureplot.Row, error) {
	rows, err := parquet.Read[measureplot.Row](r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return rows, nil
}

// WriteParquet encodes rows as a Parquet file.
func WriteParquet(w io.Writer, rows []measureplot.Row) error {
	if err := parquet.Write(w, rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON array of rows.
func ReadJSON(r io.Reader) ([]measureplot.Row, error) {
	var rows []measureplot.Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode json rows: %w", err)
	}
	return rows, nil
}

// ReadJSONLines decodes one row per line. Malformed lines are logged and
// skipped.
func ReadJSONLines(ctx context.Context, r io.Reader) ([]measureplot.Row, error) {
	var rows []measureplot.Row

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++

		b := scanner.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}

		var row measureplot.Row
		if err := json.Unmarshal(b, &row); err != nil {
			slog.Warn("skipping malformed json line",
				slog.Int("line", line),
				slog.Any("error", err))
			continue
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading json lines: %w", err)
	}
	return rows, nil
}

// FilterProcess keeps the rows of process id. Rows with a missing or
// malformed process id are dropped. uuid.Nil disables filtering.
func FilterProcess(rows []measureplot.Row, id uuid.UUID) []measureplot.Row {
	if id == uuid.Nil {
		return rows
	}

	out := make([]measureplot.Row, 0, len(rows))
	for _, row := range rows {
		rowID, err := uuid.Parse(row.ProcessID)
		if err != nil || rowID != id {
			continue
		}
		out = append(out, row)
	}
	return out
}
