// Package scene reads scene export documents and exposes them to the preflight engine.
//
// An export is a flat dump of the scene nodes the validator cares about, written by the
// DCC-side exporter as YAML or JSON:
//
//	file: {name: shot010_v003.hip, unsaved: false}
//	playback: {first: 1, last: 100}
//	nodes:
//	  - {path: /out/Redshift_ROP1, type: Redshift_ROP, parms: {RS_renderCamera: /obj/cam1, f1: 1, f2: 100}}
//	  - {path: /obj/cam1, type: cam, parms: {resx: 1920, resy: 1080, aspect: 1}}
package scene

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of an export document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Ext is the file extension used when storing a document of this format.
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType is the media type served for this format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "application/yaml"
}

// ParseFormat accepts "yaml", "yml" and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// FormatFromContentType maps a request media type to a format. Anything that is
// not YAML is treated as JSON.
func FormatFromContentType(contentType string) Format {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatJSON
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Export is a decoded scene export document.
type Export struct {
	File     FileInfo `json:"file" yaml:"file"`
	Playback Playback `json:"playback" yaml:"playback"`
	Nodes    []Node   `json:"nodes" yaml:"nodes"`
}

// FileInfo describes the scene file the export was taken from.
type FileInfo struct {
	Name    string `json:"name" yaml:"name"`
	Unsaved bool   `json:"unsaved" yaml:"unsaved"`
}

// Playback is the scene timeline range.
type Playback struct {
	First int `json:"first" yaml:"first"`
	Last  int `json:"last" yaml:"last"`
}

// Node is one scene node with its raw parameter values.
type Node struct {
	Path  string         `json:"path" yaml:"path"`
	Type  string         `json:"type" yaml:"type"`
	Parms map[string]any `json:"parms,omitempty" yaml:"parms,omitempty"`
}

// DecodeError reports a document that could not be parsed or failed schema validation.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s export: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode reads an export document, validates it against the export schema and
// returns the typed document. Every failure is a *DecodeError.
func Decode(r io.Reader, format Format) (*Export, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	return DecodeBytes(raw, format)
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(raw []byte, format Format) (*Export, error) {
	doc, err := normalize(raw, format)
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	sch, err := exportSchema()
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	if err := sch.Validate(inst); err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}

	var out Export
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	return &out, nil
}

// normalize converts the document to JSON so that both formats share one schema
// and one typed decode.
func normalize(raw []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return raw, nil
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("convert yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// Encode writes the export in the given format.
func Encode(w io.Writer, exp *Export, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(exp)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(exp); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

//go:embed export.schema.json
var exportSchemaJSON []byte

const exportSchemaURL = "https://preflight.local/schemas/export.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func exportSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(exportSchemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse export schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(exportSchemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add export schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(exportSchemaURL)
	})
	return compiledSchema, schemaErr
}
