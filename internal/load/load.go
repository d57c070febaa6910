// Package load imports raw search-result files into the dataset. Each line
// of a JSONL file is one entry; the file name plus the entry key becomes the
// record's origin tag.
package load

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/litreview-cli/internal/model"
)

// entryKeyField and entryTypeField are the reserved keys of a JSONL entry;
// everything else is a content field.
const (
	entryKeyField  = "ID"
	entryTypeField = "ENTRYTYPE"
)

// Result summarizes one file import.
type Result struct {
	File     string
	Imported []*model.Record
	Skipped  int
}

// File reads a JSONL search-result file and returns imported records: status
// md_imported, origin "<file>/<key>", provenance completed from the origin.
// Duplicate keys within the file and records already present (by origin) are
// skipped, so re-running an import is idempotent.
func File(path string, existing []*model.Record) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "load: open %s", path)
	}
	defer f.Close()

	log := zap.L().Named("load")
	base := filepath.Base(path)
	res := &Result{File: base}

	knownOrigins := make(map[string]bool)
	for _, r := range existing {
		for _, o := range r.Origins {
			knownOrigins[o] = true
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		rec, err := parseEntry(base, raw)
		if err != nil {
			return nil, eris.Wrapf(err, "load: %s line %d", base, line)
		}
		if knownOrigins[rec.Origins[0]] {
			log.Debug("entry already imported",
				zap.String("origin", rec.Origins[0]),
			)
			res.Skipped++
			continue
		}
		knownOrigins[rec.Origins[0]] = true
		res.Imported = append(res.Imported, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(err, "load: read %s", path)
	}

	log.Info("file imported",
		zap.String("file", base),
		zap.Int("imported", len(res.Imported)),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// parseEntry builds one record from a JSONL line.
func parseEntry(file, raw string) (*model.Record, error) {
	var entry map[string]string
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, eris.Wrap(err, "parse entry")
	}

	key := entry[entryKeyField]
	if key == "" {
		return nil, &model.StructuralError{Detail: "entry without an ID key"}
	}
	entryType := entry[entryTypeField]
	if entryType == "" {
		entryType = model.EntryTypeMisc
	}

	rec := model.NewRecord(key, entryType)
	rec.Status = model.StatusImported
	origin := fmt.Sprintf("%s/%s", file, key)
	rec.Origins = []string{origin}
	for k, v := range entry {
		if k == entryKeyField || k == entryTypeField || v == "" {
			continue
		}
		rec.Fields[strings.ToLower(k)] = v
	}
	rec.AddProvenanceAll(origin)
	return rec, nil
}
