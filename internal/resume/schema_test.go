package resume

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAcceptsStructuredResume(t *testing.T) {
	got, err := Parse([]byte(`{
		"full_name": "Jane Doe",
		"skills": ["Go", "SQL"],
		"experience": [
			{"company": "Acme", "role": "Marketing Manager", "dates": "2020 - 2023", "bullets": ["Grew pipeline"]},
			{"company": "Initech", "role": "Analyst", "dates": null, "bullets": []}
		]
	}`))
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", got.FullName)
	require.Equal(t, []string{"Go", "SQL"}, got.Skills)
	require.Len(t, got.Experience, 2)
	require.Equal(t, "Marketing Manager", got.Experience[0].Role)
	require.Equal(t, "", got.Experience[1].Dates)
}

func TestParseRejectsInvalidInput(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want error
	}{
		"prose":            {raw: `Here is your resume: {}`, want: ErrInvalidJSON},
		"markdown fenced":  {raw: "```json\n{}\n```", want: ErrInvalidJSON},
		"missing keys":     {raw: `{"full_name":"Jane"}`, want: ErrShapeMismatch},
		"skills as string": {raw: `{"full_name":"Jane","skills":"Go","experience":[]}`, want: ErrShapeMismatch},
		"bullets missing":  {raw: `{"full_name":"Jane","skills":[],"experience":[{"company":"A","role":"B"}]}`, want: ErrShapeMismatch},
		"array root":       {raw: `[]`, want: ErrShapeMismatch},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(tc.raw))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseFormatted(t *testing.T) {
	require.Nil(t, ParseFormatted(nil))
	require.Nil(t, ParseFormatted(json.RawMessage("null")))
	require.Nil(t, ParseFormatted(json.RawMessage(`{"full_name":1}`)))

	got := ParseFormatted(json.RawMessage(`{"full_name":"A","skills":[],"experience":[]}`))
	require.NotNil(t, got)
	require.Equal(t, "A", got.FullName)
	require.NotNil(t, got.Skills)
}

func TestDecodeLegacyIsBestEffort(t *testing.T) {
	got := decodeLegacy(json.RawMessage(`{
		"full_name": "Jane",
		"skills": "not-a-list",
		"experience": [{"company": "Acme", "role": "PM", "bullets": ["x"]}, {"company": 7}],
		"content": "ignored"
	}`))
	require.Equal(t, "Jane", got.FullName)
	require.Empty(t, got.Skills)
	require.NotNil(t, got.Skills)
	require.Len(t, got.Experience, 1)
	require.Equal(t, "Acme", got.Experience[0].Company)
}
