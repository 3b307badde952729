package reconcile

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"invoicefacts/internal/fingerprint"
	"invoicefacts/internal/normalize"
	"invoicefacts/internal/schema"
	"invoicefacts/pkg/records"
)

// clientFields are the canonical client fields, in persisted column order.
// The row hash covers exactly these.
var clientFields = []string{
	schema.FieldClientID,
	schema.FieldClientName,
	schema.FieldStatus,
	schema.FieldTier,
	schema.FieldCreatedAt,
	schema.FieldCurrency,
}

// validClientID matches a well-formed client id; anything else falls back to
// the client name as merge key.
var validClientID = regexp.MustCompile(`^C\d{5}$`)

// statusRank orders statuses for conflict resolution: ACTIVE beats INACTIVE
// beats UNKNOWN.
func statusRank(status string) int {
	switch status {
	case normalize.StatusActive:
		return 2
	case normalize.StatusInactive:
		return 1
	}
	return 0
}

// clientRow is a normalized client candidate prior to merge. fields holds
// the canonical string form of every client field (created_at serialized as
// a date string); created and rank are carried alongside for sorting.
type clientRow struct {
	fields  map[string]string
	created *time.Time
	rank    int
}

// Clients reconciles all client source batches into one canonical client per
// merge key. Each batch is schema-mapped, normalized, and deduplicated on
// its own; the per-batch survivors are then merged across batches with
// field-level backfill.
func Clients(batches [][]records.Record) []Client {
	var all []clientRow
	for _, batch := range batches {
		if len(batch) == 0 {
			continue
		}
		variant := schema.Detect(schema.ClientVariants(), batch)
		mapped := schema.Apply(variant, batch)
		rows := normalizeClientBatch(mapped)
		all = append(all, dedupeClientBatch(rows)...)
	}
	return mergeClients(all)
}

// normalizeClientBatch applies the field normalizers and uppercases every
// string-typed canonical field, yielding one clientRow per input record.
func normalizeClientBatch(batch []records.Record) []clientRow {
	rows := make([]clientRow, 0, len(batch))
	for _, rec := range batch {
		status := normalize.Status(rec[schema.FieldStatus])
		tier := strings.ToUpper(strings.TrimSpace(rec.String(schema.FieldTier)))
		if tier == "" {
			tier = normalize.StatusUnknown
		}
		currency := strings.ToUpper(strings.TrimSpace(rec.String(schema.FieldCurrency)))
		if currency == "" {
			currency = "USD"
		}
		created := normalize.Date(rec[schema.FieldCreatedAt])

		row := clientRow{
			fields: map[string]string{
				schema.FieldClientID:   strings.ToUpper(strings.TrimSpace(rec.String(schema.FieldClientID))),
				schema.FieldClientName: strings.ToUpper(normalize.Name(rec[schema.FieldClientName])),
				schema.FieldStatus:     status,
				schema.FieldTier:       tier,
				schema.FieldCreatedAt:  formatDate(created),
				schema.FieldCurrency:   currency,
			},
			created: created,
			rank:    statusRank(status),
		}
		rows = append(rows, row)
	}
	return rows
}

// dedupeClientBatch keeps the best row per client id within one batch: sort
// by (id ascending, status rank descending, created_at descending with nulls
// last) and take the first occurrence of each id. Rows without an id cannot
// be keyed here and pass through to the cross-batch merge untouched.
func dedupeClientBatch(rows []clientRow) []clientRow {
	sorted := make([]clientRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.fields[schema.FieldClientID] != b.fields[schema.FieldClientID] {
			return a.fields[schema.FieldClientID] < b.fields[schema.FieldClientID]
		}
		if a.rank != b.rank {
			return a.rank > b.rank
		}
		return laterCreated(a.created, b.created)
	})

	out := make([]clientRow, 0, len(sorted))
	seen := map[uint64]bool{}
	for _, row := range sorted {
		id := row.fields[schema.FieldClientID]
		if id == "" {
			out = append(out, row)
			continue
		}
		key := fingerprint.Key(id)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

// laterCreated orders created_at descending with nulls last.
func laterCreated(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

// emptyish reports whether a canonical value should be treated as absent for
// backfill purposes: empty string or one of the literal sentinels.
func emptyish(v string) bool {
	switch strings.ToUpper(v) {
	case "", "NONE", "NAN", normalize.StatusUnknown:
		return true
	}
	return false
}

// mergeClients groups the per-batch survivors by merge key and collapses
// each group to a single canonical client. Within a group, rows sort by
// (created_at descending nulls last, status rank descending); the first row
// becomes the base, and iterating the group in that order backfills any
// still-empty base field with the first non-empty value found. Backfill
// never overwrites a field the base already holds.
func mergeClients(rows []clientRow) []Client {
	groups := map[string][]clientRow{}
	var order []string
	for _, row := range rows {
		key := mergeKey(row)
		if key == "" {
			// Neither a valid id nor a name; nothing to merge on.
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	out := make([]Client, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if !timesEqual(a.created, b.created) {
				return laterCreated(a.created, b.created)
			}
			return a.rank > b.rank
		})

		base := make(map[string]string, len(clientFields))
		for _, f := range clientFields {
			base[f] = group[0].fields[f]
		}
		for _, row := range group {
			for _, f := range clientFields {
				if emptyish(base[f]) && row.fields[f] != "" {
					base[f] = row.fields[f]
				}
			}
		}

		if base[schema.FieldClientID] == "" {
			base[schema.FieldClientID] = fallbackID(key)
		}

		created := parseCanonicalDate(base[schema.FieldCreatedAt])
		out = append(out, Client{
			ID:        base[schema.FieldClientID],
			Name:      base[schema.FieldClientName],
			Status:    base[schema.FieldStatus],
			Tier:      base[schema.FieldTier],
			CreatedAt: created,
			Currency:  base[schema.FieldCurrency],
			RowHash:   fingerprint.Hex(base),
		})
	}
	return out
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// mergeKey is the client id when well-formed, else the client name. This
// lets name-keyed sources merge with id-keyed ones when no valid id exists.
func mergeKey(row clientRow) string {
	if id := row.fields[schema.FieldClientID]; validClientID.MatchString(id) {
		return id
	}
	return row.fields[schema.FieldClientName]
}

// fallbackID derives an opaque, stable client id from a name merge key. The
// clients table is keyed on client_id, so a name-keyed client must still
// carry a unique id or two distinct names would collapse into one row.
func fallbackID(key string) string {
	return "N-" + strings.ToUpper(fingerprint.Hex(map[string]string{schema.FieldClientName: key})[:10])
}
