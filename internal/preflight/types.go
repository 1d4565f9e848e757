// Package preflight validates render-job descriptors before a scene is sent to the farm.
//
// A run captures a point-in-time SceneSnapshot from an Inspector, resolves the consensus
// camera, evaluates every rule of a RuleSet and aggregates the issues into a Report grouped
// by category. Nothing in this package reads the scene after the snapshot is taken.
package preflight

import (
	"fmt"
	"strings"
)

// FrameRange is an inclusive (first, last) frame pair.
type FrameRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Inverted reports whether the range ends before it starts.
func (r FrameRange) Inverted() bool {
	return r.First > r.Last
}

func (r FrameRange) String() string {
	return fmt.Sprintf("%d - %d", r.First, r.Last)
}

// ChannelKind classifies a configured AOV.
type ChannelKind int

// KindMotionVectors is the AOV kind code of a motion-vector channel.
const KindMotionVectors ChannelKind = 2

// RenderJob is one render-submission unit.
type RenderJob struct {
	ID                        string        `json:"id"`
	CameraRef                 string        `json:"camera_ref"`
	FrameRange                FrameRange    `json:"frame_range"`
	AOVNames                  []string      `json:"aov_names"`
	AOVChannelKinds           []ChannelKind `json:"aov_channel_kinds"`
	ZDepthEnabled             bool          `json:"zdepth_enabled"`
	MotionBlurEnabled         bool          `json:"motion_blur_enabled"`
	GIEnabled                 bool          `json:"gi_enabled"`
	GlobalEnvironmentOverride string        `json:"global_environment_override,omitempty"`
}

// AOVListsConsistent reports whether names and kinds describe the same channels.
func (j RenderJob) AOVListsConsistent() bool {
	return len(j.AOVNames) == len(j.AOVChannelKinds)
}

// HasAOV reports whether name is one of the configured channel names.
func (j RenderJob) HasAOV(name string) bool {
	for _, n := range j.AOVNames {
		if n == name {
			return true
		}
	}
	return false
}

// HasChannelKind reports whether any configured channel is of the given kind.
func (j RenderJob) HasChannelKind(kind ChannelKind) bool {
	for _, k := range j.AOVChannelKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (j RenderJob) clone() RenderJob {
	out := j
	out.AOVNames = append([]string(nil), j.AOVNames...)
	out.AOVChannelKinds = append([]ChannelKind(nil), j.AOVChannelKinds...)
	return out
}

// Camera holds the render settings of a camera node.
type Camera struct {
	Path        string  `json:"path"`
	ResolutionX int     `json:"resolution_x"`
	ResolutionY int     `json:"resolution_y"`
	PixelAspect float64 `json:"pixel_aspect"`
	DOFEnabled  bool    `json:"dof_enabled"`
}

// DomeLight is an environment light.
type DomeLight struct {
	ID                string `json:"id"`
	BackgroundVisible bool   `json:"background_visible"`
	BackplateEnabled  bool   `json:"backplate_enabled"`
}

// FileState describes the scene file being validated.
type FileState struct {
	FileName          string `json:"file_name"`
	HasUnsavedChanges bool   `json:"has_unsaved_changes"`
}

// Category groups issues for display. Values are listed in display order by Categories.
type Category string

const (
	CategoryCamera             Category = "Camera"
	CategoryResolution         Category = "Resolution"
	CategoryPixelAspect        Category = "PixelAspect"
	CategoryDepthOfField       Category = "DepthOfField"
	CategoryFrameRange         Category = "FrameRange"
	CategoryAOVPresence        Category = "AOVPresence"
	CategoryZDepth             Category = "ZDepth"
	CategoryMotion             Category = "Motion"
	CategoryGlobalIllumination Category = "GlobalIllumination"
	CategoryCryptomatte        Category = "Cryptomatte"
	CategoryDomeLight          Category = "DomeLight"
	CategoryGlobalEnvironment  Category = "GlobalEnvironment"
	CategorySaveState          Category = "SaveState"
)

var categoryOrder = []Category{
	CategoryCamera,
	CategoryResolution,
	CategoryPixelAspect,
	CategoryDepthOfField,
	CategoryFrameRange,
	CategoryAOVPresence,
	CategoryZDepth,
	CategoryMotion,
	CategoryGlobalIllumination,
	CategoryCryptomatte,
	CategoryDomeLight,
	CategoryGlobalEnvironment,
	CategorySaveState,
}

// Categories returns every category in display order.
func Categories() []Category {
	return append([]Category(nil), categoryOrder...)
}

// Rank is the position of c in the display order, or len(Categories()) if unknown.
func (c Category) Rank() int {
	for i, known := range categoryOrder {
		if known == c {
			return i
		}
	}
	return len(categoryOrder)
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categoryOrder {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Severity ranks an issue. Higher values are more severe.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity accepts info, warning (or warn) and error.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ValidationIssue is one finding. Message is always FormatMessage(Code, Facts).
type ValidationIssue struct {
	Category  Category          `json:"category"`
	Severity  Severity          `json:"severity"`
	SubjectID string            `json:"subject_id"`
	Code      Code              `json:"code"`
	Facts     map[string]string `json:"facts,omitempty"`
	Message   string            `json:"message"`
}

func (i ValidationIssue) clone() ValidationIssue {
	if i.Facts == nil {
		return i
	}
	facts := make(map[string]string, len(i.Facts))
	for k, v := range i.Facts {
		facts[k] = v
	}
	i.Facts = facts
	return i
}
