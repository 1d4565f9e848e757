package scene

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalJSON = `{
  "file": {"name": "a.hip", "unsaved": true},
  "playback": {"first": 1, "last": 24},
  "nodes": [
    {"path": "/out/rop", "type": "Redshift_ROP", "parms": {"RS_renderCamera": "/obj/cam", "f1": 1, "f2": 24}}
  ]
}`

func TestDecodeJSON(t *testing.T) {
	exp, err := Decode(strings.NewReader(minimalJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, FileInfo{Name: "a.hip", Unsaved: true}, exp.File)
	assert.Equal(t, Playback{First: 1, Last: 24}, exp.Playback)
	require.Len(t, exp.Nodes, 1)
	assert.Equal(t, "/obj/cam", exp.Nodes[0].Parms["RS_renderCamera"])
	assert.Equal(t, float64(24), exp.Nodes[0].Parms["f2"])
}

func TestDecodeYAMLMatchesJSON(t *testing.T) {
	yamlDoc := `
file: {name: a.hip, unsaved: true}
playback: {first: 1, last: 24}
nodes:
  - path: /out/rop
    type: Redshift_ROP
    parms: {RS_renderCamera: /obj/cam, f1: 1, f2: 24}
`
	fromYAML, err := Decode(strings.NewReader(yamlDoc), FormatYAML)
	require.NoError(t, err)
	fromJSON, err := Decode(strings.NewReader(minimalJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{"broken yaml", "file: [unclosed", FormatYAML},
		{"broken json", `{"file":`, FormatJSON},
		{"empty document", "", FormatYAML},
		{"missing nodes", `{"file": {"name": "a.hip"}, "playback": {"first": 1, "last": 2}}`, FormatJSON},
		{"fractional frame", `{"file": {"name": "a.hip"}, "playback": {"first": 1.5, "last": 2}, "nodes": []}`, FormatJSON},
		{"node without path", `{"file": {"name": "a.hip"}, "playback": {"first": 1, "last": 2}, "nodes": [{"type": "cam"}]}`, FormatJSON},
		{"nested parm", `{"file": {"name": "a.hip"}, "playback": {"first": 1, "last": 2}, "nodes": [{"path": "/obj/cam", "type": "cam", "parms": {"resx": [1]}}]}`, FormatJSON},
		{"unknown format", minimalJSON, Format("xml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), tt.format)
			require.Error(t, err)

			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	exp, err := LoadFile("testdata/shot010.yaml")
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, exp, format))

			again, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, exp, again)
		})
	}
}

func TestFormats(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = FormatFromPath("/tmp/shot.json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = FormatFromPath("/tmp/shot.hip")
	assert.Error(t, err)

	assert.Equal(t, FormatYAML, FormatFromContentType("application/yaml; charset=utf-8"))
	assert.Equal(t, FormatYAML, FormatFromContentType("text/x-yaml"))
	assert.Equal(t, FormatJSON, FormatFromContentType("application/json"))
	assert.Equal(t, FormatJSON, FormatFromContentType(""))

	assert.Equal(t, "scenes/scn_1/export.yaml", ObjectKey("scn_1", FormatYAML))
}
