package preflight

import "strconv"

// Rule evaluates one category over a snapshot. Rules hold no mutable state and never see
// each other's output.
type Rule interface {
	Category() Category
	Description() string
	Evaluate(snap SceneSnapshot, consensus ConsensusResult) []ValidationIssue
}

// RuleOptions tunes the rule thresholds and sentinel names. Zero fields take the value
// from DefaultRuleOptions.
type RuleOptions struct {
	// PixelAspectLimit is the largest pixel aspect ratio accepted without a warning.
	PixelAspectLimit float64
	// CryptoMaterialAOV is the AOV name of the per-material cryptomatte channel.
	CryptoMaterialAOV string
	// CryptoObjectAOV is the AOV name of the per-object cryptomatte channel.
	CryptoObjectAOV string
	// MotionVectorKind is the channel kind of a motion-vector AOV. Kind 0 is not a valid
	// channel kind and cannot be configured; it selects KindMotionVectors.
	MotionVectorKind ChannelKind
}

// DefaultRuleOptions returns the studio defaults.
func DefaultRuleOptions() RuleOptions {
	return RuleOptions{
		PixelAspectLimit:  2.0,
		CryptoMaterialAOV: "U_CRYMAT_matte",
		CryptoObjectAOV:   "U_CRYOBJ_matte",
		MotionVectorKind:  KindMotionVectors,
	}
}

func (o RuleOptions) withDefaults() RuleOptions {
	def := DefaultRuleOptions()
	if o.PixelAspectLimit <= 0 {
		o.PixelAspectLimit = def.PixelAspectLimit
	}
	if o.CryptoMaterialAOV == "" {
		o.CryptoMaterialAOV = def.CryptoMaterialAOV
	}
	if o.CryptoObjectAOV == "" {
		o.CryptoObjectAOV = def.CryptoObjectAOV
	}
	if o.MotionVectorKind == 0 {
		o.MotionVectorKind = def.MotionVectorKind
	}
	return o
}

type ruleFunc struct {
	category    Category
	description string
	eval        func(snap SceneSnapshot, consensus ConsensusResult) []ValidationIssue
}

func (r ruleFunc) Category() Category { return r.category }

func (r ruleFunc) Description() string { return r.description }

func (r ruleFunc) Evaluate(snap SceneSnapshot, consensus ConsensusResult) []ValidationIssue {
	return r.eval(snap, consensus)
}

// NewRule adapts a function to the Rule interface.
func NewRule(category Category, description string, eval func(SceneSnapshot, ConsensusResult) []ValidationIssue) Rule {
	return ruleFunc{category: category, description: description, eval: eval}
}

// ---- camera rules ----

// CameraRule describes the consensus camera issues. The engine produces them before the
// rule set runs, so DefaultRuleSet does not include it; NewRuleSet(CameraRule(), ...) builds
// a set that reports them from a plain RuleSet.Evaluate.
func CameraRule() Rule {
	return NewRule(CategoryCamera, "report the default camera and flag jobs bound to another camera", CameraIssues)
}

// consensusCamera returns the default camera or the anomaly issue for a rule that needs it.
func consensusCamera(snap SceneSnapshot, consensus ConsensusResult, category Category) (Camera, []ValidationIssue) {
	cam, ok := snap.Camera(consensus.DefaultCamera)
	if ok {
		return cam, nil
	}
	return Camera{}, []ValidationIssue{
		newIssue(category, SeverityError, consensus.DefaultCamera, CodeCameraNotFound, map[string]string{
			FactRule:   string(category),
			FactCamera: consensus.DefaultCamera,
		}),
	}
}

// ResolutionRule reports the consensus camera resolution.
func ResolutionRule() Rule {
	return NewRule(CategoryResolution, "report the default camera resolution", func(snap SceneSnapshot, consensus ConsensusResult) []ValidationIssue {
		cam, anomaly := consensusCamera(snap, consensus, CategoryResolution)
		if anomaly != nil {
			return anomaly
		}
		return []ValidationIssue{
			newIssue(CategoryResolution, SeverityInfo, cam.Path, CodeResolution, map[string]string{
				FactResX: strconv.Itoa(cam.ResolutionX),
				FactResY: strconv.Itoa(cam.ResolutionY),
			}),
		}
	})
}

// PixelAspectRule warns when the consensus camera pixel aspect is above the limit.
func PixelAspectRule(opts RuleOptions) Rule {
	opts = opts.withDefaults()
	return NewRule(CategoryPixelAspect, "warn when the default camera pixel aspect exceeds "+formatFloat(opts.PixelAspectLimit), func(snap SceneSnapshot, consensus ConsensusResult) []ValidationIssue {
		cam, anomaly := consensusCamera(snap, consensus, CategoryPixelAspect)
		if anomaly != nil {
			return anomaly
		}
		facts := map[string]string{FactAspect: formatFloat(cam.PixelAspect)}
		if cam.PixelAspect > opts.PixelAspectLimit {
			facts[FactLimit] = formatFloat(opts.PixelAspectLimit)
			return []ValidationIssue{newIssue(CategoryPixelAspect, SeverityWarning, cam.Path, CodePixelAspectHigh, facts)}
		}
		return []ValidationIssue{newIssue(CategoryPixelAspect, SeverityInfo, cam.Path, CodePixelAspect, facts)}
	})
}

// DepthOfFieldRule reports whether depth of field is enabled on the consensus camera.
func DepthOfFieldRule() Rule {
	return NewRule(CategoryDepthOfField, "report the default camera depth of field state", func(snap SceneSnapshot, consensus ConsensusResult) []ValidationIssue {
		cam, anomaly := consensusCamera(snap, consensus, CategoryDepthOfField)
		if anomaly != nil {
			return anomaly
		}
		code := CodeDOFDisabled
		if cam.DOFEnabled {
			code = CodeDOFEnabled
		}
		return []ValidationIssue{newIssue(CategoryDepthOfField, SeverityInfo, cam.Path, code, nil)}
	})
}

// ---- job rules ----

// FrameRangeRule reports the scene playback range and warns about jobs rendering a
// different range. A job whose range ends before it starts is reported as an error.
func FrameRangeRule() Rule {
	return NewRule(CategoryFrameRange, "warn when a job frame range differs from the playback range", func(snap SceneSnapshot, _ ConsensusResult) []ValidationIssue {
		pb := snap.playback
		out := []ValidationIssue{
			newIssue(CategoryFrameRange, SeverityInfo, "", CodeFrameRangeScene, rangeFacts("", pb)),
		}
		for _, j := range snap.jobs {
			switch {
			case j.FrameRange.Inverted():
				out = append(out, newIssue(CategoryFrameRange, SeverityError, j.ID, CodeFrameRangeInverted, rangeFacts(j.ID, j.FrameRange)))
			case j.FrameRange != pb:
				out = append(out, newIssue(CategoryFrameRange, SeverityWarning, j.ID, CodeFrameRangeMismatch, rangeFacts(j.ID, j.FrameRange)))
			}
		}
		return out
	})
}

func rangeFacts(job string, r FrameRange) map[string]string {
	facts := map[string]string{
		FactFirst: strconv.Itoa(r.First),
		FactLast:  strconv.Itoa(r.Last),
	}
	if job != "" {
		facts[FactJob] = job
	}
	return facts
}

// AOVPresenceRule flags jobs without any configured AOV.
func AOVPresenceRule() Rule {
	return NewRule(CategoryAOVPresence, "error when a job has no AOVs", func(snap SceneSnapshot, _ ConsensusResult) []ValidationIssue {
		var out []ValidationIssue
		for _, j := range snap.jobs {
			if len(j.AOVNames) == 0 {
				out = append(out, newIssue(CategoryAOVPresence, SeverityError, j.ID, CodeAOVMissing, jobFacts(j.ID)))
			}
		}
		return out
	})
}

// ZDepthRule warns about jobs with the depth channel disabled.
func ZDepthRule() Rule {
	return NewRule(CategoryZDepth, "warn when Z-depth is disabled", func(snap SceneSnapshot, _ ConsensusResult) []ValidationIssue {
		var out []ValidationIssue
		for _, j := range snap.jobs {
			if !j.ZDepthEnabled {
				out = append(out, newIssue(CategoryZDepth, SeverityWarning, j.ID, CodeZDepthDisabled, jobFacts(j.ID)))
			}
		}
		return out
	})
}

// MotionRule classifies each job by motion blur and motion-vector AOVs.
func MotionRule(opts RuleOptions) Rule {
	opts = opts.withDefaults()
	return NewRule(CategoryMotion, "report motion blur and motion vector usage", func(snap SceneSnapshot, _ ConsensusResult) []ValidationIssue {
		var out []ValidationIssue
		for _, j := range snap.jobs {
			if !j.AOVListsConsistent() {
				out = append(out, malformedAOVs(CategoryMotion, j))
				continue
			}
			vector := j.HasChannelKind(opts.MotionVectorKind)
			switch {
			case j.MotionBlurEnabled && vector:
				out = append(out, newIssue(CategoryMotion, SeverityWarning, j.ID, CodeMotionBoth, jobFacts(j.ID)))
			case j.MotionBlurEnabled:
				out = append(out, newIssue(CategoryMotion, SeverityInfo, j.ID, CodeMotionBlur, jobFacts(j.ID)))
			case vector:
				out = append(out, newIssue(CategoryMotion, SeverityInfo, j.ID, CodeMotionVector, jobFacts(j.ID)))
			}
		}
		return out
	})
}

// GlobalIlluminationRule reports the GI state of every job.
func GlobalIlluminationRule() Rule {
	return NewRule(CategoryGlobalIllumination, "report GI state, warn when disabled", func(snap SceneSnapshot, _ ConsensusResult) []ValidationIssue {
		out := make([]ValidationIssue, 0, len(snap.jobs))
		for _, j := range snap.jobs {
			if j.GIEnabled {
				out = append(out, newIssue(CategoryGlobalIllumination, SeverityInfo, j.ID, CodeGIEnabled, jobFacts(j.ID)))
			} else {
				out = append(out, newIssue(CategoryGlobalIllumination, SeverityWarning, j.ID, CodeGIDisabled, jobFacts(j.ID)))
			}
		}
		return out
	})
}

// CryptomatteRule warns about jobs missing the material or object cryptomatte AOV.
// Missing both is reported once, never as two single misses.
func CryptomatteRule(opts RuleOptions) Rule {
	opts = opts.withDefaults()
	return NewRule(CategoryCryptomatte, "warn when cryptomatte material/object AOVs are missing", func(snap SceneSnapshot, _ ConsensusResult) []ValidationIssue {
		var out []ValidationIssue
		for _, j := range snap.jobs {
			if !j.AOVListsConsistent() {
				out = append(out, malformedAOVs(CategoryCryptomatte, j))
				continue
			}
			material := j.HasAOV(opts.CryptoMaterialAOV)
			object := j.HasAOV(opts.CryptoObjectAOV)
			switch {
			case !material && !object:
				out = append(out, newIssue(CategoryCryptomatte, SeverityWarning, j.ID, CodeCryptoMissing, jobFacts(j.ID)))
			case !material:
				out = append(out, newIssue(CategoryCryptomatte, SeverityWarning, j.ID, CodeCryptoMatMissing, jobFacts(j.ID)))
			case !object:
				out = append(out, newIssue(CategoryCryptomatte, SeverityWarning, j.ID, CodeCryptoObjMissing, jobFacts(j.ID)))
			}
		}
		return out
	})
}

// GlobalEnvironmentRule flags jobs overriding the global environment.
func GlobalEnvironmentRule() Rule {
	return NewRule(CategoryGlobalEnvironment, "flag jobs with a global environment override", func(snap SceneSnapshot, _ ConsensusResult) []ValidationIssue {
		var out []ValidationIssue
		for _, j := range snap.jobs {
			if j.GlobalEnvironmentOverride == "" {
				continue
			}
			facts := jobFacts(j.ID)
			facts[FactEnv] = j.GlobalEnvironmentOverride
			out = append(out, newIssue(CategoryGlobalEnvironment, SeverityInfo, j.ID, CodeGlobalEnvOverride, facts))
		}
		return out
	})
}

// ---- scene rules ----

// DomeLightRule reports background and backplate state for every dome light.
func DomeLightRule() Rule {
	return NewRule(CategoryDomeLight, "report dome light background and backplate state", func(snap SceneSnapshot, _ ConsensusResult) []ValidationIssue {
		out := make([]ValidationIssue, 0, len(snap.domes)*2)
		for _, d := range snap.domes {
			facts := map[string]string{FactDome: d.ID}
			bg := CodeDomeBackgroundOff
			if d.BackgroundVisible {
				bg = CodeDomeBackgroundOn
			}
			plate := CodeDomeBackplateOff
			if d.BackplateEnabled {
				plate = CodeDomeBackplateOn
			}
			out = append(out,
				newIssue(CategoryDomeLight, SeverityInfo, d.ID, bg, facts),
				newIssue(CategoryDomeLight, SeverityInfo, d.ID, plate, map[string]string{FactDome: d.ID}),
			)
		}
		return out
	})
}

// SaveStateRule reports whether the scene file has unsaved changes.
func SaveStateRule() Rule {
	return NewRule(CategorySaveState, "error when the scene file has unsaved changes", func(snap SceneSnapshot, _ ConsensusResult) []ValidationIssue {
		facts := map[string]string{FactFile: snap.file.FileName}
		if snap.file.HasUnsavedChanges {
			return []ValidationIssue{newIssue(CategorySaveState, SeverityError, "", CodeFileUnsaved, facts)}
		}
		return []ValidationIssue{newIssue(CategorySaveState, SeverityInfo, "", CodeFileSaved, facts)}
	})
}

func jobFacts(id string) map[string]string {
	return map[string]string{FactJob: id}
}

func malformedAOVs(category Category, j RenderJob) ValidationIssue {
	return newIssue(category, SeverityError, j.ID, CodeAOVMalformed, map[string]string{
		FactJob:   j.ID,
		FactRule:  string(category),
		FactNames: strconv.Itoa(len(j.AOVNames)),
		FactKinds: strconv.Itoa(len(j.AOVChannelKinds)),
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
