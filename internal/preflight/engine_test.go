package preflight

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func busyScene() *fakeInspector {
	a1 := goodJob("/out/beauty", "/obj/cam1")
	a1.MotionBlurEnabled = true

	a2 := goodJob("/out/fx", "/obj/cam1")
	a2.AOVNames = nil
	a2.AOVChannelKinds = nil
	a2.GIEnabled = false

	b := goodJob("/out/bg", "/obj/cam2")
	b.FrameRange = FrameRange{First: 1, Last: 50}
	b.ZDepthEnabled = false
	b.GlobalEnvironmentOverride = "/obj/rsenv"
	b.AOVNames = []string{"U_CRYOBJ_matte", "MV"}
	b.AOVChannelKinds = []ChannelKind{24, KindMotionVectors}

	insp := sceneWith(a1, a2, b)
	insp.file.HasUnsavedChanges = true
	return insp
}

func TestEngineRunFullReport(t *testing.T) {
	result, err := NewEngine(Options{}).Run(busyScene())
	require.NoError(t, err)

	assert.Equal(t, "/obj/cam1", result.Consensus.DefaultCamera)

	issues := result.Report.Issues()
	lastRank := -1
	for _, i := range issues {
		assert.GreaterOrEqual(t, i.Category.Rank(), lastRank, "report must be grouped in display order")
		lastRank = i.Category.Rank()
	}

	cams := issuesOf(issues, CategoryCamera)
	assert.Equal(t, []Code{CodeCameraDefault, CodeCameraMismatch}, codesOf(cams))
	assert.Equal(t, "/out/bg", cams[1].SubjectID)

	assert.Equal(t, []Code{CodeFrameRangeScene, CodeFrameRangeMismatch}, codesOf(issuesOf(issues, CategoryFrameRange)))
	assert.Equal(t, []Code{CodeMotionBlur, CodeMotionVector}, codesOf(issuesOf(issues, CategoryMotion)))
	assert.Equal(t, []Code{CodeCryptoMissing, CodeCryptoMatMissing}, codesOf(issuesOf(issues, CategoryCryptomatte)))
	assert.Equal(t, []Code{CodeFileUnsaved}, codesOf(issuesOf(issues, CategorySaveState)))
	assert.True(t, result.Report.HasErrors())
}

func TestEngineEmptyAOVListStillEvaluatedByOtherRules(t *testing.T) {
	result, err := NewEngine(Options{}).Run(busyScene())
	require.NoError(t, err)

	var aov, gi, crypto int
	for _, i := range result.Report.Issues() {
		if i.SubjectID != "/out/fx" {
			continue
		}
		switch i.Category {
		case CategoryAOVPresence:
			aov++
			assert.Equal(t, SeverityError, i.Severity)
		case CategoryGlobalIllumination:
			gi++
		case CategoryCryptomatte:
			crypto++
		}
	}
	assert.Equal(t, 1, aov)
	assert.Equal(t, 1, gi)
	assert.Equal(t, 1, crypto)
}

func TestEngineNoJobs(t *testing.T) {
	result, err := NewEngine(Options{}).Run(sceneWith())
	require.Error(t, err)

	var noJobs *NoJobsError
	assert.True(t, errors.As(err, &noJobs))
	assert.Equal(t, 0, result.Report.Len())
}

func TestEngineSceneQueryError(t *testing.T) {
	insp := busyScene()
	insp.failOn = "domes"

	_, err := NewEngine(Options{}).Run(insp)
	var qe *SceneQueryError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "list dome lights", qe.Op)
}

func TestEngineIsIdempotent(t *testing.T) {
	engine := NewEngine(Options{})
	snap := mustSnapshot(busyScene())

	first, err := engine.Validate(snap)
	require.NoError(t, err)
	second, err := engine.Validate(snap)
	require.NoError(t, err)

	a, err := json.Marshal(first.Report)
	require.NoError(t, err)
	b, err := json.Marshal(second.Report)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestEngineParallelMatchesSequential(t *testing.T) {
	snap := mustSnapshot(busyScene())

	seq, err := NewEngine(Options{}).Validate(snap)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		par, err := NewEngine(Options{Parallel: true}).Validate(snap)
		require.NoError(t, err)
		assert.Equal(t, seq.Report.Issues(), par.Report.Issues())
	}
}

func TestRuleIndependence(t *testing.T) {
	snap := mustSnapshot(busyScene())
	full, err := NewEngine(Options{}).Validate(snap)
	require.NoError(t, err)

	for _, removed := range Categories() {
		t.Run(string(removed), func(t *testing.T) {
			partial, err := NewEngine(Options{Disabled: []Category{removed}}).Validate(snap)
			require.NoError(t, err)

			assert.Empty(t, issuesOf(partial.Report.Issues(), removed))

			var want []ValidationIssue
			for _, i := range full.Report.Issues() {
				if i.Category != removed {
					want = append(want, i)
				}
			}
			assert.Equal(t, want, nonNil(partial.Report.Issues()))
		})
	}
}

func nonNil(issues []ValidationIssue) []ValidationIssue {
	if len(issues) == 0 {
		return nil
	}
	return issues
}

func TestEngineCustomRuleSet(t *testing.T) {
	rules := NewRuleSet(ZDepthRule())
	result, err := NewEngineWithRules(Options{Disabled: []Category{CategoryCamera}}, rules).Run(busyScene())
	require.NoError(t, err)

	issues := result.Report.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, "/out/bg", issues[0].SubjectID)
}

func TestMessagesAreReproducibleFromFacts(t *testing.T) {
	insp := busyScene()
	insp.cameras[0].PixelAspect = 3
	result, err := NewEngine(Options{}).Run(insp)
	require.NoError(t, err)

	for _, i := range result.Report.Issues() {
		assert.Equal(t, FormatMessage(i.Code, i.Facts), i.Message)
		assert.NotContains(t, i.Message, "{", "unfilled placeholder in %s", i.Code)
	}
}

func TestFormatMessageUnknownCode(t *testing.T) {
	msg := FormatMessage(Code("custom.check"), map[string]string{"b": "2", "a": "1"})
	assert.Equal(t, "custom.check a=1 b=2", msg)
}
