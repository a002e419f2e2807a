// Package codec converts records and the registry index to and from the
// text bodies of tickets and comments.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gamewiki/issuestore/internal/domain"
)

// EncodeCollection serializes a user's records into a collection ticket body.
func EncodeCollection(records []domain.Record) (string, error) {
	if records == nil {
		records = []domain.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode collection: %w", err)
	}
	return string(b), nil
}

// DecodeCollection parses a collection ticket body. A body that is not a
// JSON array of objects yields an empty slice together with a DecodeError;
// callers log the error and carry on with the empty slice.
func DecodeCollection(body string) ([]domain.Record, error) {
	if strings.TrimSpace(body) == "" {
		return []domain.Record{}, nil
	}

	var records []domain.Record
	if err := decodeJSON(body, &records); err != nil {
		return []domain.Record{}, domain.DecodeError{What: "collection", Err: err}
	}
	if records == nil {
		return []domain.Record{}, nil
	}
	for i, r := range records {
		if r == nil {
			return []domain.Record{}, domain.DecodeError{What: "collection", Err: fmt.Errorf("element %d is not an object", i)}
		}
	}
	return records, nil
}

// EncodeRecord serializes a single record into a comment body.
func EncodeRecord(record domain.Record) (string, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(b), nil
}

// DecodeRecord parses a comment body holding one record.
func DecodeRecord(body string) (domain.Record, error) {
	var record domain.Record
	if err := decodeJSON(body, &record); err != nil {
		return nil, domain.DecodeError{What: "record", Err: err}
	}
	if record == nil {
		return nil, domain.DecodeError{What: "record", Err: fmt.Errorf("body is not an object")}
	}
	return record, nil
}

// decodeJSON keeps numbers as json.Number so opaque values survive a
// decode/encode cycle unchanged.
func decodeJSON(body string, v any) error {
	decoder := json.NewDecoder(bytes.NewReader([]byte(body)))
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if decoder.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}
