package jsonarray

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type score struct {
	Player string   `json:"player"`
	Points int      `json:"points"`
	Ratio  float64  `json:"ratio"`
	Tags   []string `json:"tags"`
}

func TestEncodeEmptyCompact(t *testing.T) {
	out, err := Encode([]int{}, false)
	require.NoError(t, err)
	require.Equal(t, `{"items":[]}`, out)

	out, err = Encode[int](nil, false)
	require.NoError(t, err)
	require.Equal(t, `{"items":[]}`, out)
}

func TestEncodePrettyOnlyChangesWhitespace(t *testing.T) {
	items := []score{{Player: "ada", Points: 3, Tags: []string{"a"}}}

	compact, err := Encode(items, false)
	require.NoError(t, err)
	pretty, err := Encode(items, true)
	require.NoError(t, err)

	require.Contains(t, pretty, "\n    \"items\"")
	require.Equal(t, compact, stripWhitespace(pretty))
}

func TestWrapArray(t *testing.T) {
	require.Equal(t, `{"items":[1,2,3]}`, WrapArray("[1,2,3]"))
	// no validation happens at wrap time
	require.Equal(t, `{"items":oops}`, WrapArray("oops"))
}

func TestRoundTrip(t *testing.T) {
	cases := map[string][]score{
		"empty":  {},
		"single": {{Player: "ada", Points: 10, Ratio: 0.5, Tags: []string{"x"}}},
		"ordered": {
			{Player: "c", Points: 3},
			{Player: "a", Points: 1},
			{Player: "b", Points: 2, Tags: []string{"p", "q"}},
		},
	}

	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			for _, pretty := range []bool{false, true} {
				text, err := Encode(items, pretty)
				require.NoError(t, err)

				got, err := Decode[score](text)
				require.NoError(t, err)
				if diff := cmp.Diff(items, got); diff != "" {
					t.Fatalf("round trip mismatch (pretty=%v) (-want +got):\n%s", pretty, diff)
				}
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	inputs := []string{
		"not json",
		"",
		"[1,2,3]",
		`{"Items":[1]}`,
		`{"other":[1]}`,
		`{"items":"nope"}`,
		`{"items":[1,2`,
	}
	for _, in := range inputs {
		_, err := Decode[int](in)
		require.ErrorIs(t, err, ErrMalformedInput, "input %q", in)
	}
}

func TestDecodeArrayFromServer(t *testing.T) {
	got, err := DecodeArray[score](`[{"player":"ada","points":7},{"player":"bob","points":2}]`)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "ada", got[0].Player)
	require.Equal(t, 2, got[1].Points)

	_, err = DecodeArray[score]("not an array")
	require.ErrorIs(t, err, ErrMalformedInput)
}

func TestDecodeEmptyIsNonNil(t *testing.T) {
	got, err := Decode[int](`{"items":[]}`)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\t', '\r':
			return -1
		}
		return r
	}, s)
}
