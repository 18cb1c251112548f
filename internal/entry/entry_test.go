package entry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, typ := range AllTypes {
		got, err := ParseType(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	_, err := ParseType("blob")
	assert.Error(t, err)
}

func TestType_IsDocument(t *testing.T) {
	assert.True(t, Document.IsDocument())
	assert.True(t, RwDocument.IsDocument())
	assert.False(t, Message.IsDocument())
	assert.False(t, SensorData.IsDocument())
}

func TestExportTypes_ExcludeDocument(t *testing.T) {
	assert.NotContains(t, ExportTypes, Document)
	assert.Len(t, ExportTypes, 3)
}

func TestTimeQuery_Bounds(t *testing.T) {
	q := TimeQuery{Field: WriteTs, Start: 10, End: 20}

	assert.True(t, q.Contains(10), "start is inclusive")
	assert.True(t, q.Contains(20), "end is inclusive")
	assert.False(t, q.Contains(20.0001))

	assert.False(t, q.ContainsExclusive(10))
	assert.False(t, q.ContainsExclusive(20))
	assert.True(t, q.ContainsExclusive(15))
}

func TestTimeQuery_Validate(t *testing.T) {
	assert.NoError(t, TimeQuery{Field: ReadTs, Start: 0, End: 0}.Validate())
	assert.Error(t, TimeQuery{Field: "ts", Start: 0, End: 1}.Validate())
	assert.Error(t, TimeQuery{Field: WriteTs, Start: 5, End: 1}.Validate())
}

func TestTimeQuery_Select(t *testing.T) {
	m := Metadata{WriteTs: 3, ReadTs: 7}
	assert.Equal(t, 3.0, TimeQuery{Field: WriteTs}.Select(m))
	assert.Equal(t, 7.0, TimeQuery{Field: ReadTs}.Select(m))
}

func TestEncodePayload_Struct(t *testing.T) {
	v := struct {
		Lat  float64 `json:"lat"`
		Note string  `json:"note"`
	}{Lat: 37.5, Note: "a<b"}

	raw, err := EncodePayload("loc", v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":37.5,"note":"a<b"}`, string(raw))
	assert.Contains(t, string(raw), "a<b", "HTML escaping must be disabled")
}

func TestEncodePayload_RawIsValidated(t *testing.T) {
	raw, err := EncodePayload("k", json.RawMessage(`  {"a":1} `))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(raw))

	_, err = EncodePayload("k", []byte(`{"a":`))
	require.Error(t, err)
	assert.True(t, IsSerializationError(err))
}

func TestEncodePayload_Unencodable(t *testing.T) {
	_, err := EncodePayload("bad", math.Inf(1))
	require.Error(t, err)
	assert.True(t, IsSerializationError(err))
	assert.False(t, IsDeserializeError(err))

	_, err = EncodePayload("bad", make(chan int))
	assert.True(t, IsSerializationError(err))
}

func TestDecodePayload(t *testing.T) {
	e := Entry{
		Metadata: Metadata{Key: "k", WriteTs: 12},
		Payload:  json.RawMessage(`{"n":4}`),
	}

	var out struct{ N int }
	require.NoError(t, DecodePayload(e, &out))
	assert.Equal(t, 4, out.N)

	var wrong struct{ N string }
	err := DecodePayload(e, &wrong)
	require.Error(t, err)
	assert.True(t, IsDeserializeError(err))

	wrapped := fmt.Errorf("scan: %w", err)
	assert.True(t, IsDeserializeError(wrapped))

	var pe *Error
	require.True(t, errors.As(wrapped, &pe))
	assert.Equal(t, 12.0, pe.WriteTs)
	assert.Contains(t, pe.Error(), "key=k")
}

func TestValidPayload(t *testing.T) {
	assert.True(t, ValidPayload(json.RawMessage(`{"a":1}`)))
	assert.True(t, ValidPayload(json.RawMessage(` [1,2]`)))
	assert.False(t, ValidPayload(json.RawMessage(`"str"`)))
	assert.False(t, ValidPayload(json.RawMessage(`{"a":`)))
	assert.False(t, ValidPayload(nil))
}

func TestRecordRoundTrip(t *testing.T) {
	e := Entry{
		ID: 9,
		Metadata: Metadata{
			WriteTs: 1.5, ReadTs: 2.5, TimeZone: "Europe/Berlin",
			Type: Message, Key: "k", Plugin: "p",
		},
		Payload: json.RawMessage(`[1]`),
	}

	back := e.ToRecord().ToEntry()
	assert.Equal(t, e.Metadata, back.Metadata)
	assert.Equal(t, e.Payload, back.Payload)
	assert.Zero(t, back.ID, "records do not carry store identifiers")

	data, err := json.Marshal(e.ToRecord())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"metadata": {"write_ts":1.5,"read_ts":2.5,"time_zone":"Europe/Berlin",
			"type":"message","key":"k","plugin":"p"},
		"data": [1]
	}`, string(data))
}

func TestNormalizeKey(t *testing.T) {
	// "é" as e + combining acute vs precomposed
	decomposed := "cafe\u0301"
	precomposed := "caf\u00e9"
	assert.Equal(t, precomposed, NormalizeKey(decomposed))
	assert.Equal(t, "background/location", NormalizeKey("  background/location "))
}
