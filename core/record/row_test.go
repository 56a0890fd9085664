package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_SetPreservesInsertionOrder(t *testing.T) {
	r := New(3)
	r.Set("b", String("1"))
	r.Set("a", String("2"))
	r.Set("b", String("3"))

	assert.Equal(t, []string{"b", "a"}, r.Columns())
	assert.Equal(t, "3", r.Value("b").String())
	assert.Equal(t, 2, r.Len())
}

func TestRow_MissingColumnIsNull(t *testing.T) {
	r := New(0)
	v, ok := r.Get("missing")
	assert.False(t, ok)
	assert.True(t, v.IsNull())
	assert.Equal(t, "", r.Value("missing").String())

	var nilRow *Row
	assert.Equal(t, 0, nilRow.Len())
	assert.False(t, nilRow.Has("x"))
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"Null", Null(), ""},
		{"String", String(" Foo "), " Foo "},
		{"WholeNumber", Number(10), "10"},
		{"Fraction", Number(10.25), "10.25"},
		{"Date", Date(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)), "2024-01-31"},
		{"DateTime", Date(time.Date(2024, 1, 31, 8, 30, 0, 0, time.UTC)), "2024-01-31 08:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestFromAny(t *testing.T) {
	assert.Equal(t, KindNull, FromAny(nil).Kind())
	assert.Equal(t, KindNumber, FromAny(int64(3)).Kind())
	assert.Equal(t, KindString, FromAny("x").Kind())
	assert.Equal(t, KindDate, FromAny(time.Now()).Kind())
	assert.Equal(t, "true", FromAny(true).String())
}

func TestRow_JSONRoundTripKeepsOrder(t *testing.T) {
	var r Row
	err := json.Unmarshal([]byte(`{"z":"1","a":2.5,"m":null,"nested":{"k":1}}`), &r)
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m", "nested"}, r.Columns())
	assert.Equal(t, KindNumber, r.Value("a").Kind())
	assert.True(t, r.Value("m").IsNull())
	assert.Equal(t, `{"k":1}`, r.Value("nested").String())

	out, err := json.Marshal(&r)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":2.5,"m":null,"nested":"{\"k\":1}"}`, string(out))
}

func TestRow_UnmarshalNumbers(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
		want string
	}{
		{"SmallInteger", `42`, KindNumber, "42"},
		{"Decimal", `2.5`, KindNumber, "2.5"},
		{"MaxExactInteger", `9007199254740992`, KindNumber, "9007199254740992"},
		{"LargeInteger", `9007199254740993`, KindString, "9007199254740993"},
		{"LongNegativeID", `-12345678901234567891`, KindString, "-12345678901234567891"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Row
			require.NoError(t, json.Unmarshal([]byte(`{"id":`+tt.raw+`}`), &r))
			assert.Equal(t, tt.kind, r.Value("id").Kind())
			assert.Equal(t, tt.want, r.Value("id").String())
		})
	}

	t.Run("AdjacentLargeIntegersStayDistinct", func(t *testing.T) {
		var a, b Row
		require.NoError(t, json.Unmarshal([]byte(`{"id":9007199254740993}`), &a))
		require.NoError(t, json.Unmarshal([]byte(`{"id":9007199254740992}`), &b))
		assert.NotEqual(t, a.Value("id").String(), b.Value("id").String())
		assert.False(t, a.Value("id").Equal(b.Value("id")))
	})
}

func TestRow_UnmarshalRejectsNonObject(t *testing.T) {
	var r Row
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
}

func TestHeaders(t *testing.T) {
	r1 := New(2)
	r1.Set("id", String("1"))
	r1.Set("name", String("a"))
	r2 := New(2)
	r2.Set("amount", Number(1))
	r2.Set("id", String("2"))

	assert.Equal(t, []string{"id", "name", "amount"}, Headers([]*Row{r1, nil, r2}))
}

func TestRow_CloneIsIndependent(t *testing.T) {
	r := New(1)
	r.Set("a", String("1"))
	c := r.Clone()
	c.Set("b", String("2"))

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 2, c.Len())
}
