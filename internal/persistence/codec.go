package persistence

import "encoding/json"

// The execution context is constrained to JSON-shaped values, so
// snapshots round-trip losslessly through encoding/json and stay
// readable in the database.

// EncodeJSON serializes a snapshot value. nil encodes to nil.
func EncodeJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// DecodeJSON deserializes a snapshot previously written by EncodeJSON.
// Empty input yields the zero value.
func DecodeJSON[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	err := json.Unmarshal(data, &v)
	return v, err
}
