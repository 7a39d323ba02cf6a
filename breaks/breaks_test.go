package breaks_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-punch-server/breaks"
)

func TestParseCode(t *testing.T) {
	catalog := breaks.Default()

	tests := []struct {
		name     string
		text     string
		wantCode string
		wantOK   bool
	}{
		{name: "plain code", text: "wc", wantCode: "wc", wantOK: true},
		{name: "uppercase", text: "WC", wantCode: "wc", wantOK: true},
		{name: "embedded in sentence", text: "going for a wc now", wantCode: "wc", wantOK: true},
		{name: "bwc wins over wc", text: "bwc", wantCode: "bwc", wantOK: true},
		{name: "meal with plus", text: "cf+2", wantCode: "cf+2", wantOK: true},
		{name: "meal without plus", text: "cf2", wantCode: "cf+2", wantOK: true},
		{name: "meal with spaces and punctuation", text: "C F + 1!", wantCode: "cf+1", wantOK: true},
		{name: "gibberish", text: "zzz", wantOK: false},
		{name: "empty", text: "", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			breakType, ok := catalog.ParseCode(tc.text)
			require.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				require.Equal(t, tc.wantCode, breakType.Code)
			}
		})
	}
}

func TestIsBack(t *testing.T) {
	for _, text := range []string{"back", "b", "1", "btw", "Back To Work", "BACK", " back "} {
		require.True(t, breaks.IsBack(text), "expected %q to be a back keyword", text)
	}
	for _, text := range []string{"wc", "backpack?", "", "2"} {
		require.False(t, breaks.IsBack(text), "expected %q not to be a back keyword", text)
	}
}

func TestIsCancel(t *testing.T) {
	for _, text := range []string{"c", "cancel", "CANCEL that", "reset"} {
		require.True(t, breaks.IsCancel(text), "expected %q to cancel", text)
	}
	require.False(t, breaks.IsCancel("back"))
	require.False(t, breaks.IsCancel("wc"))
}

func TestCodesLongestFirst(t *testing.T) {
	codes := breaks.Default().Codes()
	require.Len(t, codes, 6)
	for i := 1; i < len(codes); i++ {
		require.GreaterOrEqual(t, len(codes[i-1]), len(codes[i]))
	}
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "cf+1", breaks.Normalize("C F + 1!"))
	require.Equal(t, "backtowork", breaks.Normalize("Back to work"))
	require.Equal(t, "", breaks.Normalize("???"))
}
