package codec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamewiki/issuestore/internal/domain"
)

func TestDecodeCollection_CorruptBodyIsEmpty(t *testing.T) {
	for _, body := range []string{"not json", `{"id":"x"}`, `[1,2]`, `[null]`, `[{"id":"a"}] trailing`} {
		records, err := DecodeCollection(body)
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, domain.ErrDecode), body)
		assert.NotNil(t, records, body)
		assert.Len(t, records, 0, body)
	}
}

func TestDecodeCollection_EmptyBodies(t *testing.T) {
	for _, body := range []string{"", "   ", "null", "[]"} {
		records, err := DecodeCollection(body)
		require.NoError(t, err, body)
		assert.Len(t, records, 0, body)
	}
}

func TestCollectionRoundTrip(t *testing.T) {
	records := []domain.Record{
		{"id": "skill-builds-1-abc", "name": "Fire Build", "slots": []any{"a", "b"}, "level": 12},
		{"id": "skill-builds-2-def", "name": "Ice Build"},
	}

	body, err := EncodeCollection(records)
	require.NoError(t, err)

	decoded, err := DecodeCollection(body)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "Fire Build", decoded[0]["name"])
	assert.Equal(t, json.Number("12"), decoded[0]["level"])
	assert.Equal(t, 12, decoded[0].Int("level"))

	again, err := EncodeCollection(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, body, again)
}

func TestEncodeCollection_Nil(t *testing.T) {
	body, err := EncodeCollection(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", body)
}

func TestDecodeRecord(t *testing.T) {
	record, err := DecodeRecord(`{"url":"https://cdn/x.png","changeCount":2}`)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/x.png", record.String("url"))
	assert.Equal(t, 2, record.Int("changeCount"))

	_, err = DecodeRecord("null")
	assert.True(t, errors.Is(err, domain.ErrDecode))

	_, err = DecodeRecord("<html>")
	assert.True(t, errors.Is(err, domain.ErrDecode))
}

func TestDecodeIndexMap(t *testing.T) {
	m := DecodeIndexMap("# header\n[7]=101\n[9]=202")
	assert.Equal(t, "# header", m.Header)
	assert.Equal(t, []string{"7", "9"}, m.Keys())

	v, ok := m.Lookup("7")
	require.True(t, ok)
	assert.Equal(t, "101", v)
	v, ok = m.Lookup("9")
	require.True(t, ok)
	assert.Equal(t, "202", v)
}

func TestIndexMapDeleteRewritesBody(t *testing.T) {
	m := DecodeIndexMap("# header\n[7]=101\n[9]=202")
	require.True(t, m.Remove("7"))
	assert.Equal(t, "# header\n[9]=202", EncodeIndexMap(m))
}

func TestDecodeIndexMap_ToleratesGarbage(t *testing.T) {
	m := DecodeIndexMap("<!-- idx -->\r\n[1]=11\r\nrandom text\n[bad key]=3\n[2]=22 trailing\n[3]=\n")
	assert.Equal(t, "<!-- idx -->", m.Header)
	assert.Equal(t, []string{"1", "2"}, m.Keys())

	empty := DecodeIndexMap("")
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, DefaultIndexHeader, empty.Header)
	assert.Equal(t, DefaultIndexHeader, EncodeIndexMap(empty))
}

func TestIndexMapAppend(t *testing.T) {
	m := NewIndexMap()
	m.Set("42", FormatCommentID(9001))
	m.Set("7", FormatCommentID(9002))

	body := EncodeIndexMap(m)
	assert.Equal(t, DefaultIndexHeader+"\n[42]=9001\n[7]=9002", body)

	decoded := DecodeIndexMap(body)
	v, _ := decoded.Lookup("7")
	id, err := CommentID(v)
	require.NoError(t, err)
	assert.Equal(t, int64(9002), id)
}
