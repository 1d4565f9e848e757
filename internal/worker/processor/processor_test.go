package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preflight/internal/catalog"
	"preflight/internal/pkg/logger"
	"preflight/internal/preflight"
	"preflight/internal/scene"
	"preflight/internal/worker/queue"
)

type fakeSource struct {
	exports map[string]*scene.Export
	err     error
}

func (f *fakeSource) LoadScene(_ context.Context, id string) (*scene.Export, error) {
	if f.err != nil {
		return nil, f.err
	}
	exp, ok := f.exports[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return exp, nil
}

type memSink struct {
	payloads map[string][]byte
	err      error
}

func (m *memSink) Put(_ context.Context, id string, payload []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.payloads == nil {
		m.payloads = map[string][]byte{}
	}
	m.payloads[id] = payload
	return nil
}

func (m *memSink) envelope(t *testing.T, id string) queue.ReportEnvelope {
	t.Helper()
	raw, ok := m.payloads[id]
	require.True(t, ok, "no envelope for %s", id)
	var env queue.ReportEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func shotExport(jobs int) *scene.Export {
	exp := &scene.Export{
		File:     scene.FileInfo{Name: "shot030_v002.hip", Unsaved: true},
		Playback: scene.Playback{First: 1, Last: 48},
		Nodes: []scene.Node{
			{Path: "/obj/cam1", Type: scene.TypeCamera, Parms: map[string]any{"resx": 1920.0, "resy": 1080.0}},
		},
	}
	for i := 1; i <= jobs; i++ {
		exp.Nodes = append(exp.Nodes, scene.Node{
			Path: fmt.Sprintf("/out/rop%d", i),
			Type: scene.TypeRedshiftROP,
			Parms: map[string]any{
				"RS_renderCamera": "/obj/cam1",
				"f1":              1.0,
				"f2":              48.0,
				"RS_aov":          1.0,
				"RS_aovSuffix_1":  "Z",
				"RS_aovID_1":      1.0,
			},
		})
	}
	return exp
}

func newProcessor(src SceneSource, sink ReportSink, buf *bytes.Buffer) *Processor {
	return New(Deps{
		Source: src,
		Sink:   sink,
		Log:    logger.New(logger.Config{Level: "debug", Output: buf}),
		Now:    func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) },
	})
}

func TestProcessPublishesReport(t *testing.T) {
	var logs bytes.Buffer
	sink := &memSink{}
	p := newProcessor(&fakeSource{exports: map[string]*scene.Export{"scn_1": shotExport(2)}}, sink, &logs)

	require.NoError(t, p.Process(context.Background(), "scn_1"))

	env := sink.envelope(t, "scn_1")
	assert.Equal(t, queue.StatusDone, env.Status)
	assert.Nil(t, env.Error)
	require.NotNil(t, env.Report)
	assert.True(t, env.Report.HasErrors(), "unsaved file is an error")
	assert.Equal(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), env.FinishedAt)
	assert.Contains(t, logs.String(), "preflight finished")
	assert.Contains(t, logs.String(), `"scene_id":"scn_1"`)
}

func TestProcessFailures(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeSource
		code   string
	}{
		{"unknown scene", &fakeSource{}, "NOT_FOUND"},
		{"no render jobs", &fakeSource{exports: map[string]*scene.Export{"scn_1": shotExport(0)}}, "FAILED_PRECONDITION"},
		{"undecodable export", &fakeSource{err: &scene.DecodeError{Format: scene.FormatJSON, Err: fmt.Errorf("eof")}}, "VALIDATION_ERROR"},
		{"storage down", &fakeSource{err: fmt.Errorf("connection refused")}, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			sink := &memSink{}
			err := newProcessor(tt.source, sink, &logs).Process(context.Background(), "scn_1")
			require.Error(t, err)

			env := sink.envelope(t, "scn_1")
			assert.Equal(t, queue.StatusFailed, env.Status)
			assert.Nil(t, env.Report)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestProcessQueryErrorIsValidation(t *testing.T) {
	exp := shotExport(1)
	exp.Nodes[1].Parms["f1"] = "one"

	sink := &memSink{}
	var logs bytes.Buffer
	err := newProcessor(&fakeSource{exports: map[string]*scene.Export{"scn_1": exp}}, sink, &logs).Process(context.Background(), "scn_1")

	var qe *preflight.SceneQueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "VALIDATION_ERROR", sink.envelope(t, "scn_1").Error.Code)
}

func TestProcessSinkFailure(t *testing.T) {
	var logs bytes.Buffer
	sink := &memSink{err: fmt.Errorf("redis gone")}
	err := newProcessor(&fakeSource{exports: map[string]*scene.Export{"scn_1": shotExport(1)}}, sink, &logs).Process(context.Background(), "scn_1")
	assert.ErrorContains(t, err, "failed to publish report")
}
