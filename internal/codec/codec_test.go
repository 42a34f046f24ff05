package codec_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rpggio/haulboard/internal/codec"
	"github.com/stretchr/testify/require"
)

var columns = []codec.Column{
	{Key: "vessel", Label: "Судно/Vessel"},
	{Key: "serial", Label: `Serial "No."`},
	{Key: "notes", Label: "Notes"},
}

func TestEncode(t *testing.T) {
	rows := []codec.Row{
		{"vessel": "MV Aurora", "serial": "SN-1", "notes": "blade, tip scratch"},
		{"vessel": "MV Borealis"},
	}

	got := codec.Encode(rows, columns)
	want := `"Судно/Vessel","Serial ""No.""","Notes"` + "\n" +
		`"MV Aurora","SN-1","blade, tip scratch"` + "\n" +
		`"MV Borealis","",""`
	require.Equal(t, want, got)
}

func TestEncode_DoublesQuotes(t *testing.T) {
	got := codec.Encode([]codec.Row{{"notes": `He said "hi"`}}, []codec.Column{{Key: "notes", Label: "Notes"}})
	require.Equal(t, "\"Notes\"\n\"He said \"\"hi\"\"\"", got)
}

func TestEncode_NoRows(t *testing.T) {
	require.Equal(t, `"Судно/Vessel","Serial ""No.""","Notes"`, codec.Encode(nil, columns))
}

func TestParse(t *testing.T) {
	text := "a,b,c\r\n\"x, y\",\"multi\nline\",\"say \"\"hi\"\"\"\r\n"

	got := codec.Parse(text)
	want := [][]string{
		{"a", "b", "c"},
		{"x, y", "multi\nline", `say "hi"`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_FlushesFinalLineWithoutNewline(t *testing.T) {
	require.Equal(t, [][]string{{"h"}, {"last", ""}}, codec.Parse("h\nlast,"))
}

func TestParse_SkipsBlankLines(t *testing.T) {
	got := codec.Parse("h1,h2\nA,1\n\n , \nB,2\n\n")
	require.Equal(t, [][]string{{"h1", "h2"}, {"A", "1"}, {"B", "2"}}, got)
}

func TestParse_KeepsValuesVerbatim(t *testing.T) {
	require.Equal(t, [][]string{{" padded ", "x"}}, codec.Parse(`" padded ",x`))
}

func TestIsBlankRow(t *testing.T) {
	require.True(t, codec.IsBlankRow(nil))
	require.True(t, codec.IsBlankRow([]string{"", " ", "\t"}))
	require.False(t, codec.IsBlankRow([]string{"", "x"}))
}

func TestDecode(t *testing.T) {
	text := "vessel,serial\nMV Aurora,SN-1,extra,cells\nMV Borealis\n"

	rows, err := codec.Decode(text, columns)
	require.NoError(t, err)
	want := []codec.Row{
		{"vessel": "MV Aurora", "serial": "SN-1", "notes": ""},
		{"vessel": "MV Borealis", "serial": "", "notes": ""},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Malformed(t *testing.T) {
	for name, text := range map[string]string{
		"empty":              "",
		"header only":        "\"Vessel\",\"Serial\"\n",
		"header plus blanks": "Vessel,Serial\n\n,\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(text, columns)
			require.ErrorIs(t, err, codec.ErrMalformedInput)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	rows := []codec.Row{
		{"vessel": `Quote "inside"`, "serial": "comma, separated", "notes": "line one\nline two"},
		{"vessel": "plain", "serial": "", "notes": "crlf\r\nkept"},
		{"vessel": " leading space", "serial": `""`, "notes": "Виявлені пошкодження"},
	}

	text := codec.Encode(rows, columns)
	decoded, err := codec.Decode(text, columns)
	require.NoError(t, err)
	if diff := cmp.Diff(rows, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, text, codec.Encode(decoded, columns))
}
