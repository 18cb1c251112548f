package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/usercache/internal/entry"
)

// rowScanner is satisfied by *sql.Rows and *sql.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry scans one row in querysql.Columns order into an Entry.
// The payload is returned raw; decoding is the caller's concern.
func scanEntry(r rowScanner) (entry.Entry, error) {
	var e entry.Entry
	var typ, data string

	if err := r.Scan(
		&e.ID, &e.WriteTs, &e.ReadTs, &e.TimeZone,
		&typ, &e.Key, &e.Plugin, &data,
	); err != nil {
		return entry.Entry{}, fmt.Errorf("scan entry: %w", err)
	}

	e.Type = entry.Type(typ)
	e.Payload = json.RawMessage(data)
	return e, nil
}
