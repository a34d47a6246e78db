package hidroweb

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Envelope represents the unified response structure the service wraps every
// payload in
type Envelope struct {
	HTTPStatus int             `json:"-"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Items      json.RawMessage `json:"items"`
}

// Table represents a payload normalized into a tabular structure.
// Columns holds the sorted union of all field names present in the rows.
type Table struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Len returns the number of rows
func (table *Table) Len() int {
	return len(table.Rows)
}

// Table normalizes the envelope's items into a tabular structure.
// A list of objects yields one row per element, a single object yields exactly
// one row and a null or absent payload yields an empty table.
func (envelope *Envelope) Table() (*Table, error) {
	if envelope.itemsAbsent() {
		return &Table{Columns: []string{}, Rows: []map[string]interface{}{}}, nil
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(envelope.Items, &rows); err != nil {
		row := map[string]interface{}{}
		if err := json.Unmarshal(envelope.Items, &row); err != nil {
			return nil, &APIError{StatusCode: envelope.HTTPStatus, Message: "payload is neither an object nor a list of objects", Body: envelope.Items}
		}
		rows = []map[string]interface{}{row}
	}

	columnSet := map[string]struct{}{}
	for _, row := range rows {
		for column := range row {
			columnSet[column] = struct{}{}
		}
	}
	columns := make([]string, 0, len(columnSet))
	for column := range columnSet {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	return &Table{Columns: columns, Rows: rows}, nil
}

func (envelope *Envelope) itemsAbsent() bool {
	trimmed := bytes.TrimSpace(envelope.Items)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeItems decodes the envelope's items into typed records.
// A single object decodes into a one-element slice, null decodes into an
// empty slice.
func decodeItems[T any](envelope *Envelope, endpoint string) ([]T, error) {
	if envelope.itemsAbsent() {
		return []T{}, nil
	}

	var records []T
	if err := json.Unmarshal(envelope.Items, &records); err == nil {
		return records, nil
	}

	record := new(T)
	if err := json.Unmarshal(envelope.Items, record); err != nil {
		return nil, &APIError{
			StatusCode: envelope.HTTPStatus,
			Endpoint:   endpoint,
			Message:    "payload does not match the expected record structure",
			Body:       envelope.Items,
		}
	}
	return []T{*record}, nil
}
