package core

import (
	"strings"
)

// SkipReason explains why a row produced no record.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipNoData      SkipReason = "no-data"
	SkipDuplicateID SkipReason = "duplicate-id"
)

// Mapper turns raw sheet rows into records.
type Mapper struct {
	ids *IDRegistry
}

// NewMapper creates a Mapper that assigns ids from ids when a row has no
// usable id of its own.
func NewMapper(ids *IDRegistry) *Mapper {
	return &Mapper{ids: ids}
}

// MapResult is the outcome of mapping every row of one fetch.
type MapResult struct {
	Records []Record
	Skipped map[SkipReason]int
}

// SkippedTotal returns the number of rows that produced no record.
func (r MapResult) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// MapAll maps rows in order. Rows that yield no record are counted by reason.
func (m *Mapper) MapAll(headers []string, rows [][]string, idColumn string) MapResult {
	batch := m.NewBatch(headers, idColumn)
	res := MapResult{
		Records: make([]Record, 0, len(rows)),
		Skipped: make(map[SkipReason]int),
	}
	for _, row := range rows {
		rec, reason := batch.Map(row)
		if reason != SkipNone {
			res.Skipped[reason]++
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// MapBatch maps the rows of a single fetch and remembers which ids it has
// emitted, whether taken from the sheet or from the registry.
type MapBatch struct {
	m       *Mapper
	headers []string
	fields  []string // normalized name per header, "" when unusable
	idIndex int      // -1 when no id column applies
	emitted map[string]struct{}
}

// NewBatch prepares a batch for headers. idColumn names the header holding
// row ids; it is matched exactly after trimming and may be empty.
func (m *Mapper) NewBatch(headers []string, idColumn string) *MapBatch {
	b := &MapBatch{
		m:       m,
		headers: headers,
		fields:  make([]string, len(headers)),
		idIndex: -1,
		emitted: make(map[string]struct{}),
	}

	idColumn = strings.TrimSpace(idColumn)
	for i, h := range headers {
		if idColumn != "" && b.idIndex < 0 && strings.TrimSpace(h) == idColumn {
			b.idIndex = i
			continue
		}
		b.fields[i] = Normalize(h)
	}
	return b
}

// Map converts one row. Fields whose value is blank, whose header is
// unusable or whose name is the reserved id are dropped; when two headers
// resolve to one field the later column wins. The row is skipped when no
// field remains or when its id was already emitted by this batch.
//
// Registry ids are only assigned to rows that carry data.
func (b *MapBatch) Map(row []string) (Record, SkipReason) {
	var rec Record
	for i := range b.headers {
		if i == b.idIndex || i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		rec.Set(b.fields[i], value)
	}
	if rec.Len() == 0 {
		return Record{}, SkipNoData
	}

	var sourceID string
	if b.idIndex >= 0 && b.idIndex < len(row) {
		sourceID = strings.TrimSpace(row[b.idIndex])
	}

	if sourceID != "" {
		if _, dup := b.emitted[sourceID]; dup {
			return Record{}, SkipDuplicateID
		}
		b.emitted[sourceID] = struct{}{}
		rec.ID = sourceID
		return rec, SkipNone
	}

	id := b.m.ids.GetOrCreateID(row, b.headers, "")
	if _, dup := b.emitted[id]; dup {
		return Record{}, SkipDuplicateID
	}
	b.emitted[id] = struct{}{}
	rec.ID = id
	return rec, SkipNone
}
