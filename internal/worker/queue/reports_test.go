package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"preflight/internal/preflight"
)

func TestReportKey(t *testing.T) {
	assert.Equal(t, "preflight:report:scn_1", ReportKey("scn_1"))
}

func TestReportEnvelopeJSON(t *testing.T) {
	report := preflight.Aggregate([]preflight.ValidationIssue{{
		Category: preflight.CategoryZDepth,
		Severity: preflight.SeverityWarning,
		Code:     preflight.CodeZDepthDisabled,
		Message:  "/out/rop Z-Depth Disabled",
	}})
	env := ReportEnvelope{
		SceneID:    "scn_1",
		Status:     StatusDone,
		Report:     &report,
		FinishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"error"`)

	var back ReportEnvelope
	require.NoError(t, json.Unmarshal(b, &back))
	require.NotNil(t, back.Report)
	assert.Equal(t, report.Issues(), back.Report.Issues())
	assert.Equal(t, env.FinishedAt, back.FinishedAt)
}

func TestFailedEnvelopeOmitsReport(t *testing.T) {
	b, err := json.Marshal(ReportEnvelope{
		SceneID: "scn_1",
		Status:  StatusFailed,
		Error:   &EnvelopeError{Code: "FAILED_PRECONDITION", Message: "scene has no render jobs"},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(b), `"report"`)
	assert.Contains(t, string(b), `"FAILED_PRECONDITION"`)
}
