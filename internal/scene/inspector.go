package scene

import (
	"fmt"
	"math"
	"path"
	"strconv"

	"preflight/internal/preflight"
)

// Node types read by the inspector.
const (
	TypeRedshiftROP = "Redshift_ROP"
	TypeCamera      = "cam"
	TypeDomeLight   = "rslightdome::2.0"
)

// Redshift ROP parameters.
const (
	parmRenderCamera = "RS_renderCamera"
	parmFrameFirst   = "f1"
	parmFrameLast    = "f2"
	parmAOVCount     = "RS_aov"
	parmAOVSuffix    = "RS_aovSuffix_"
	parmAOVID        = "RS_aovID_"
	parmDeepEnabled  = "RS_aovDeepEnabled"
	parmMotionBlur   = "MotionBlurEnabled"
	parmGIEnabled    = "RS_GIEnabled"
	parmGlobalEnv    = "RS_globalEnvironment"
)

// Camera and dome light parameters.
const (
	parmResX       = "resx"
	parmResY       = "resy"
	parmAspect     = "aspect"
	parmDOFEnable  = "RS_campro_dofEnable"
	parmBackground = "background_enable"
	parmBackplate  = "backPlateEnabled"
)

// Inspector answers preflight queries from a decoded export.
type Inspector struct {
	exp *Export
}

var _ preflight.Inspector = (*Inspector)(nil)

// NewInspector wraps an export. The export must not be modified while in use.
func NewInspector(exp *Export) *Inspector {
	return &Inspector{exp: exp}
}

func (in *Inspector) nodes(typ string) []Node {
	if in.exp == nil {
		return nil
	}
	var out []Node
	for _, n := range in.exp.Nodes {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// ListJobs maps every Redshift ROP node to a render job, in export order.
func (in *Inspector) ListJobs() ([]preflight.RenderJob, error) {
	rops := in.nodes(TypeRedshiftROP)
	jobs := make([]preflight.RenderJob, 0, len(rops))
	for _, n := range rops {
		job, err := renderJob(n)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func renderJob(n Node) (preflight.RenderJob, error) {
	p := parms{node: n}
	job := preflight.RenderJob{
		ID:                        n.Path,
		CameraRef:                 p.str(parmRenderCamera),
		FrameRange:                preflight.FrameRange{First: p.requiredInt(parmFrameFirst), Last: p.requiredInt(parmFrameLast)},
		ZDepthEnabled:             p.toggle(parmDeepEnabled),
		MotionBlurEnabled:         p.toggle(parmMotionBlur),
		GIEnabled:                 p.toggle(parmGIEnabled),
		GlobalEnvironmentOverride: p.str(parmGlobalEnv),
	}

	// AOV slots are numbered from 1. A slot without a suffix or id is skipped,
	// which leaves the two lists with different lengths.
	count := p.int(parmAOVCount)
	if count > len(n.Parms) {
		// Every real slot carries its own parameters, so a larger count cannot be read back.
		p.failValue(parmAOVCount, "at most "+strconv.Itoa(len(n.Parms))+" slots", count)
		count = 0
	}
	for i := 1; i <= count; i++ {
		idx := strconv.Itoa(i)
		if name, ok := p.lookupStr(parmAOVSuffix + idx); ok {
			job.AOVNames = append(job.AOVNames, name)
		}
		if kind, ok := p.lookupInt(parmAOVID + idx); ok {
			job.AOVChannelKinds = append(job.AOVChannelKinds, preflight.ChannelKind(kind))
		}
	}

	if p.err != nil {
		return preflight.RenderJob{}, p.err
	}
	return job, nil
}

// ListCameras returns every camera node.
func (in *Inspector) ListCameras() ([]preflight.Camera, error) {
	cams := in.nodes(TypeCamera)
	out := make([]preflight.Camera, 0, len(cams))
	for _, n := range cams {
		p := parms{node: n}
		cam := preflight.Camera{
			Path:        n.Path,
			ResolutionX: p.int(parmResX),
			ResolutionY: p.int(parmResY),
			PixelAspect: p.float(parmAspect, 1),
			DOFEnabled:  p.toggle(parmDOFEnable),
		}
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, cam)
	}
	return out, nil
}

// ListDomeLights returns every dome light node, identified by node name.
func (in *Inspector) ListDomeLights() ([]preflight.DomeLight, error) {
	domes := in.nodes(TypeDomeLight)
	out := make([]preflight.DomeLight, 0, len(domes))
	for _, n := range domes {
		p := parms{node: n}
		d := preflight.DomeLight{
			ID:                path.Base(n.Path),
			BackgroundVisible: p.toggle(parmBackground),
			BackplateEnabled:  p.toggle(parmBackplate),
		}
		if p.err != nil {
			return nil, p.err
		}
		out = append(out, d)
	}
	return out, nil
}

// PlaybackRange returns the timeline range of the export.
func (in *Inspector) PlaybackRange() (preflight.FrameRange, error) {
	if in.exp == nil {
		return preflight.FrameRange{}, fmt.Errorf("no export loaded")
	}
	return preflight.FrameRange{First: in.exp.Playback.First, Last: in.exp.Playback.Last}, nil
}

// FileState returns the scene file name and save state.
func (in *Inspector) FileState() (preflight.FileState, error) {
	if in.exp == nil {
		return preflight.FileState{}, fmt.Errorf("no export loaded")
	}
	return preflight.FileState{FileName: in.exp.File.Name, HasUnsavedChanges: in.exp.File.Unsaved}, nil
}

// parms reads typed parameter values off a node. The first type error sticks in err
// and later reads return zero values.
type parms struct {
	node Node
	err  error
}

func (p *parms) fail(name string, want string, v any) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: parameter %s: expected %s, got %T", p.node.Path, name, want, v)
	}
}

func (p *parms) failValue(name string, want string, v any) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: parameter %s: expected %s, got %v", p.node.Path, name, want, v)
	}
}

func (p *parms) lookupStr(name string) (string, bool) {
	v, ok := p.node.Parms[name]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		p.fail(name, "string", v)
		return "", false
	}
	return s, true
}

func (p *parms) str(name string) string {
	s, _ := p.lookupStr(name)
	return s
}

func (p *parms) lookupNumber(name string) (float64, bool) {
	v, ok := p.node.Parms[name]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		p.fail(name, "number", v)
		return 0, false
	}
}

func (p *parms) lookupInt(name string) (int, bool) {
	f, ok := p.lookupNumber(name)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) {
		p.fail(name, "integer", f)
		return 0, false
	}
	// float64(math.MaxInt) rounds up to 2^63, which no int can hold.
	if f < math.MinInt || f >= math.MaxInt {
		p.failValue(name, "integer in range", f)
		return 0, false
	}
	return int(f), true
}

func (p *parms) int(name string) int {
	n, _ := p.lookupInt(name)
	return n
}

func (p *parms) requiredInt(name string) int {
	n, ok := p.lookupInt(name)
	if !ok && p.err == nil {
		p.err = fmt.Errorf("%s: parameter %s is missing", p.node.Path, name)
	}
	return n
}

func (p *parms) float(name string, def float64) float64 {
	f, ok := p.lookupNumber(name)
	if !ok {
		return def
	}
	return f
}

// toggle is true for a positive number or a true boolean.
func (p *parms) toggle(name string) bool {
	v, ok := p.node.Parms[name]
	if !ok || v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	f, ok := p.lookupNumber(name)
	return ok && f > 0
}
