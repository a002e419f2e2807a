package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gamewiki/issuestore"
)

// Record is an opaque JSON object owned by exactly one user. The store
// manages id, createdAt and updatedAt; everything else belongs to the caller.
type Record map[string]any

// Owner identifies the user a record belongs to.
type Owner struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

func (o Owner) Key() string {
	return strconv.FormatInt(o.UserID, 10)
}

func (r Record) ID() string {
	id, _ := r[issuestore.FieldID].(string)
	return id
}

func (r Record) String(field string) string {
	v, _ := r[field].(string)
	return v
}

// Time parses a timestamp field. The zero time is returned when the field
// is absent or malformed.
func (r Record) Time(field string) time.Time {
	s, ok := r[field].(string)
	if !ok {
		return time.Time{}
	}
	t, err := issuestore.ParseTimestamp(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Int reads a numeric field decoded from JSON.
func (r Record) Int(field string) int {
	switch v := r[field].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, _ := v.Float64()
			return int(f)
		}
		return int(n)
	default:
		return 0
	}
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// KeyedRecord is a registry entry.
type KeyedRecord struct {
	Key    string `json:"key"`
	Record Record `json:"record"`
}
