package sqlite

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/natefinch/atomic"
)

// snapshotRecord is one line of a term meta JSONL snapshot.
type snapshotRecord struct {
	TermID int64           `json:"term_id"`
	Fields json.RawMessage `json:"fields"`
}

// Export writes every term meta entry of the active MetaStore to path as
// JSONL, one record per term in term ID order. The file is replaced
// atomically. Returns the number of records written.
func (b *Backend) Export(ctx context.Context, path string) (int, error) {
	store, err := b.MetaStore()
	if err != nil {
		return 0, err
	}
	table, err := store.Load(ctx)
	if err != nil {
		return 0, err
	}

	ids := make([]int64, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var buf bytes.Buffer
	for _, id := range ids {
		fields, err := json.Marshal(table[id])
		if err != nil {
			return 0, fmt.Errorf("encoding term %d: %w", id, err)
		}
		line, err := json.Marshal(snapshotRecord{TermID: id, Fields: fields})
		if err != nil {
			return 0, fmt.Errorf("encoding record %d: %w", id, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	b.logger.Info("exported term meta", "path", path, "records", len(ids))
	return len(ids), nil
}

// Import reads a JSONL snapshot and saves each record into the active
// MetaStore, replacing that term's entry. Entries for terms absent from
// the snapshot are kept. Malformed lines and records are skipped.
// Returns the number of records imported.
func (b *Backend) Import(ctx context.Context, path string) (int, error) {
	store, err := b.MetaStore()
	if err != nil {
		return 0, err
	}
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, raw := range records {
		var rec snapshotRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.TermID <= 0 {
			b.logger.Warn("skipping malformed snapshot record", "path", path)
			continue
		}
		fields, ok := decodeFields(rec.Fields)
		if !ok {
			b.logger.Warn("skipping malformed snapshot fields", "path", path, "term_id", rec.TermID)
			continue
		}
		if err := store.Save(ctx, rec.TermID, fields); err != nil {
			return imported, fmt.Errorf("importing term %d: %w", rec.TermID, err)
		}
		imported++
	}
	b.logger.Info("imported term meta", "path", path, "records", imported)
	return imported, nil
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}
