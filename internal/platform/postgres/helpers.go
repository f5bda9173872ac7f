package postgres

import (
	"database/sql"
	"encoding/json"
)

// tagsToArray serializes a tag list for storage in a jsonb column.
// A nil slice is stored as an empty array, not NULL.
func tagsToArray(tags []string) []byte {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		// A []string cannot fail to marshal; keep the column well-formed anyway.
		return []byte("[]")
	}
	return data
}

// arrayToTags deserializes a jsonb tag column back into a slice.
func arrayToTags(data []byte) []string {
	if len(data) == 0 {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return []string{}
	}
	return tags
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
