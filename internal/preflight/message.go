package preflight

import (
	"sort"
	"strings"
)

// Code identifies the kind of finding independently of its display text.
type Code string

const (
	CodeCameraDefault      Code = "camera.default"
	CodeCameraMismatch     Code = "camera.mismatch"
	CodeCameraNotFound     Code = "camera.not_found"
	CodeResolution         Code = "resolution.value"
	CodePixelAspect        Code = "pixel_aspect.value"
	CodePixelAspectHigh    Code = "pixel_aspect.high"
	CodeDOFEnabled         Code = "dof.enabled"
	CodeDOFDisabled        Code = "dof.disabled"
	CodeFrameRangeScene    Code = "frame_range.scene"
	CodeFrameRangeMismatch Code = "frame_range.mismatch"
	CodeFrameRangeInverted Code = "frame_range.inverted"
	CodeAOVMissing         Code = "aov.missing"
	CodeAOVMalformed       Code = "aov.malformed"
	CodeZDepthDisabled     Code = "zdepth.disabled"
	CodeMotionBoth         Code = "motion.blur_and_vector"
	CodeMotionBlur         Code = "motion.blur"
	CodeMotionVector       Code = "motion.vector"
	CodeGIEnabled          Code = "gi.enabled"
	CodeGIDisabled         Code = "gi.disabled"
	CodeCryptoMissing      Code = "crypto.missing"
	CodeCryptoMatMissing   Code = "crypto.material_missing"
	CodeCryptoObjMissing   Code = "crypto.object_missing"
	CodeDomeBackgroundOn   Code = "dome.background_on"
	CodeDomeBackgroundOff  Code = "dome.background_off"
	CodeDomeBackplateOn    Code = "dome.backplate_on"
	CodeDomeBackplateOff   Code = "dome.backplate_off"
	CodeGlobalEnvOverride  Code = "global_env.override"
	CodeFileUnsaved        Code = "save.unsaved"
	CodeFileSaved          Code = "save.saved"
)

// Fact keys used by the message templates.
const (
	FactJob    = "job"
	FactCamera = "camera"
	FactDome   = "dome"
	FactFile   = "file"
	FactFirst  = "first"
	FactLast   = "last"
	FactResX   = "resx"
	FactResY   = "resy"
	FactAspect = "aspect"
	FactLimit  = "limit"
	FactNames  = "names"
	FactKinds  = "kinds"
	FactEnv    = "environment"
	FactRule   = "rule"
)

var messageTemplates = map[Code]string{
	CodeCameraDefault:      "Render camera {camera}",
	CodeCameraMismatch:     "{job} is set to {camera}",
	CodeCameraNotFound:     "{rule}: camera {camera} not found in scene",
	CodeResolution:         "Resolution {resx} x {resy}",
	CodePixelAspect:        "Pixel aspect ratio {aspect}",
	CodePixelAspectHigh:    "Pixel aspect ratio {aspect} is above {limit}",
	CodeDOFEnabled:         "DOF Enabled",
	CodeDOFDisabled:        "DOF Disabled",
	CodeFrameRangeScene:    "Scene frame range {first} - {last}",
	CodeFrameRangeMismatch: "{job} set to {first} - {last}",
	CodeFrameRangeInverted: "{job} frame range {first} - {last} ends before it starts",
	CodeAOVMissing:         "{job} missing AOVs",
	CodeAOVMalformed:       "{job} {rule} skipped: {names} AOV names but {kinds} channel kinds",
	CodeZDepthDisabled:     "{job} Z-Depth Disabled",
	CodeMotionBoth:         "{job} Motion Blur and Vector enabled",
	CodeMotionBlur:         "{job} Motion Blur Enabled",
	CodeMotionVector:       "{job} Motion Vector Enabled",
	CodeGIEnabled:          "{job} GI Enabled",
	CodeGIDisabled:         "{job} GI Disabled",
	CodeCryptoMissing:      "{job} Crypto Missing",
	CodeCryptoMatMissing:   "{job} Crypto Matte Missing",
	CodeCryptoObjMissing:   "{job} Crypto OBJ Missing",
	CodeDomeBackgroundOn:   "{dome} background is ON",
	CodeDomeBackgroundOff:  "{dome} background is OFF",
	CodeDomeBackplateOn:    "{dome} backplate is ON",
	CodeDomeBackplateOff:   "{dome} backplate is OFF",
	CodeGlobalEnvOverride:  "{job} has global environment override {environment}",
	CodeFileUnsaved:        "{file} File Not Saved",
	CodeFileSaved:          "{file} File Saved",
}

// FormatMessage renders the display text of an issue from its structured fields.
// Unknown codes render as the code followed by the facts in key order.
func FormatMessage(code Code, facts map[string]string) string {
	tmpl, ok := messageTemplates[code]
	if !ok {
		return fallbackMessage(code, facts)
	}
	if len(facts) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(facts)*2)
	for k, v := range facts {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func fallbackMessage(code Code, facts map[string]string) string {
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(code))
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(facts[k])
	}
	return b.String()
}

func newIssue(category Category, severity Severity, subject string, code Code, facts map[string]string) ValidationIssue {
	return ValidationIssue{
		Category:  category,
		Severity:  severity,
		SubjectID: subject,
		Code:      code,
		Facts:     facts,
		Message:   FormatMessage(code, facts),
	}
}
