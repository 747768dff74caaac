package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordListScan(t *testing.T) {
	testCases := []struct {
		name  string
		value interface{}
		want  KeywordList
	}{
		{name: "json list", value: `["go","designer"]`, want: KeywordList{"go", "designer"}},
		{name: "json list as bytes", value: []byte(`["go"]`), want: KeywordList{"go"}},
		{name: "empty json list", value: `[]`, want: KeywordList{}},
		{name: "nil", value: nil, want: KeywordList{}},
		{name: "blank string", value: "   ", want: KeywordList{}},
		// Legacy rows store a bare keyword instead of JSON.
		{name: "bare string", value: "product designer", want: KeywordList{"product designer"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var k KeywordList
			require.NoError(t, k.Scan(tc.value))
			assert.Equal(t, tc.want, k)
		})
	}
}

func TestKeywordListScanRejectsUnknownType(t *testing.T) {
	var k KeywordList
	assert.Error(t, k.Scan(42))
}

func TestKeywordListValue(t *testing.T) {
	v, err := KeywordList{"go", "rust"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["go","rust"]`, v)

	v, err = KeywordList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestKeywordListRoundTrip(t *testing.T) {
	orig := KeywordList{"go engineer", "platform"}
	v, err := orig.Value()
	require.NoError(t, err)

	var got KeywordList
	require.NoError(t, got.Scan(v))
	assert.Equal(t, orig, got)
}
