package utils

import (
	"bytes"
	"encoding/json"
	"sort"
)

type OrderedKV[T any] struct {
	Value T
	Order int64
}

// OrderedKVMap is a map that remembers insertion order. It serializes to a
// JSON object whose keys appear in that order.
type OrderedKVMap[T any] map[string]OrderedKV[T]

// Set inserts or replaces key. A replaced key keeps its original position.
func (om OrderedKVMap[T]) Set(key string, value T) {
	if existing, ok := om[key]; ok {
		om[key] = OrderedKV[T]{Value: value, Order: existing.Order}
		return
	}
	next := int64(0)
	for _, v := range om {
		if v.Order >= next {
			next = v.Order + 1
		}
	}
	om[key] = OrderedKV[T]{Value: value, Order: next}
}

func (om OrderedKVMap[T]) Get(key string) (T, bool) {
	v, ok := om[key]
	return v.Value, ok
}

func (om OrderedKVMap[T]) Delete(key string) bool {
	if _, ok := om[key]; !ok {
		return false
	}
	delete(om, key)
	return true
}

// Keys returns the keys in insertion order.
func (om OrderedKVMap[T]) Keys() []string {
	keys := make([]string, 0, len(om))
	for k := range om {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		oi, oj := om[keys[i]].Order, om[keys[j]].Order
		if oi == oj {
			return keys[i] < keys[j]
		}
		return oi < oj
	})
	return keys
}

func (om OrderedKVMap[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range om.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := json.Marshal(om[key].Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
