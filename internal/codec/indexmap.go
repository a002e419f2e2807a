package codec

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gamewiki/issuestore/internal/utils"
)

// DefaultIndexHeader is written to registry bodies that have no header yet.
const DefaultIndexHeader = "<!-- registry index: do not edit by hand -->"

var indexLinePattern = regexp.MustCompile(`\[(\w+)\]=(\w+)`)

// IndexMap is the key -> comment id table kept in a registry ticket body.
type IndexMap struct {
	Header  string
	Entries utils.OrderedKVMap[string]
}

func NewIndexMap() *IndexMap {
	return &IndexMap{
		Header:  DefaultIndexHeader,
		Entries: utils.OrderedKVMap[string]{},
	}
}

// DecodeIndexMap scans body for [key]=value lines. Lines that do not match
// are ignored; the first of them becomes the header. Decoding never fails:
// a malformed body yields an empty map.
func DecodeIndexMap(body string) *IndexMap {
	m := &IndexMap{Entries: utils.OrderedKVMap[string]{}}

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		match := indexLinePattern.FindStringSubmatch(line)
		if match == nil {
			if m.Header == "" {
				m.Header = line
			}
			continue
		}
		m.Entries.Set(match[1], match[2])
	}

	if m.Header == "" {
		m.Header = DefaultIndexHeader
	}
	return m
}

// EncodeIndexMap renders the header followed by one [key]=value line per
// entry in insertion order.
func EncodeIndexMap(m *IndexMap) string {
	header := m.Header
	if header == "" {
		header = DefaultIndexHeader
	}

	var builder strings.Builder
	builder.WriteString(header)
	for _, key := range m.Entries.Keys() {
		value, _ := m.Entries.Get(key)
		builder.WriteString("\n[")
		builder.WriteString(key)
		builder.WriteString("]=")
		builder.WriteString(value)
	}
	return builder.String()
}

func (m *IndexMap) Lookup(key string) (string, bool) {
	return m.Entries.Get(key)
}

func (m *IndexMap) Set(key, value string) {
	m.Entries.Set(key, value)
}

func (m *IndexMap) Remove(key string) bool {
	return m.Entries.Delete(key)
}

func (m *IndexMap) Keys() []string {
	return m.Entries.Keys()
}

func (m *IndexMap) Len() int {
	return len(m.Entries)
}

// CommentID parses an index value into a comment id.
func CommentID(value string) (int64, error) {
	return strconv.ParseInt(value, 10, 64)
}

func FormatCommentID(id int64) string {
	return strconv.FormatInt(id, 10)
}
