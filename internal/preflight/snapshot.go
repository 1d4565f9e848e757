package preflight

import "fmt"

// Inspector is the read-only view of an authoring scene. Each accessor must return a
// consistent view for the duration of one Capture.
type Inspector interface {
	ListJobs() ([]RenderJob, error)
	ListCameras() ([]Camera, error)
	ListDomeLights() ([]DomeLight, error)
	PlaybackRange() (FrameRange, error)
	FileState() (FileState, error)
}

// SceneSnapshot is the immutable state a run validates. Accessors return copies.
type SceneSnapshot struct {
	jobs     []RenderJob
	cameras  []Camera
	domes    []DomeLight
	playback FrameRange
	file     FileState
}

// Capture reads the inspector once and builds a snapshot. Any inspector failure yields a
// *SceneQueryError and no snapshot.
func Capture(insp Inspector) (SceneSnapshot, error) {
	if insp == nil {
		return SceneSnapshot{}, &SceneQueryError{Op: "inspect", Err: fmt.Errorf("no scene loaded")}
	}

	jobs, err := insp.ListJobs()
	if err != nil {
		return SceneSnapshot{}, &SceneQueryError{Op: "list jobs", Err: err}
	}
	cameras, err := insp.ListCameras()
	if err != nil {
		return SceneSnapshot{}, &SceneQueryError{Op: "list cameras", Err: err}
	}
	domes, err := insp.ListDomeLights()
	if err != nil {
		return SceneSnapshot{}, &SceneQueryError{Op: "list dome lights", Err: err}
	}
	playback, err := insp.PlaybackRange()
	if err != nil {
		return SceneSnapshot{}, &SceneQueryError{Op: "playback range", Err: err}
	}
	file, err := insp.FileState()
	if err != nil {
		return SceneSnapshot{}, &SceneQueryError{Op: "file state", Err: err}
	}

	return NewSnapshot(jobs, cameras, domes, playback, file)
}

// NewSnapshot builds a snapshot from plain records. Job ids must be unique.
func NewSnapshot(jobs []RenderJob, cameras []Camera, domes []DomeLight, playback FrameRange, file FileState) (SceneSnapshot, error) {
	seen := make(map[string]struct{}, len(jobs))
	ownJobs := make([]RenderJob, 0, len(jobs))
	for _, j := range jobs {
		if _, dup := seen[j.ID]; dup {
			return SceneSnapshot{}, &SceneQueryError{Op: "list jobs", Err: fmt.Errorf("duplicate job id %q", j.ID)}
		}
		seen[j.ID] = struct{}{}
		ownJobs = append(ownJobs, j.clone())
	}

	return SceneSnapshot{
		jobs:     ownJobs,
		cameras:  append([]Camera(nil), cameras...),
		domes:    append([]DomeLight(nil), domes...),
		playback: playback,
		file:     file,
	}, nil
}

// Jobs returns the render jobs in scene order.
func (s SceneSnapshot) Jobs() []RenderJob {
	out := make([]RenderJob, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = j.clone()
	}
	return out
}

// JobCount is len(Jobs()) without copying.
func (s SceneSnapshot) JobCount() int {
	return len(s.jobs)
}

// Cameras returns the cameras in scene order.
func (s SceneSnapshot) Cameras() []Camera {
	return append([]Camera(nil), s.cameras...)
}

// Camera looks up a camera by path.
func (s SceneSnapshot) Camera(path string) (Camera, bool) {
	for _, c := range s.cameras {
		if c.Path == path {
			return c, true
		}
	}
	return Camera{}, false
}

// DomeLights returns the dome lights in scene order.
func (s SceneSnapshot) DomeLights() []DomeLight {
	return append([]DomeLight(nil), s.domes...)
}

// PlaybackRange is the scene's playback range.
func (s SceneSnapshot) PlaybackRange() FrameRange {
	return s.playback
}

// FileState is the scene file name and dirty flag.
func (s SceneSnapshot) FileState() FileState {
	return s.file
}
