package preflight

import "errors"

type fakeInspector struct {
	jobs     []RenderJob
	cameras  []Camera
	domes    []DomeLight
	playback FrameRange
	file     FileState

	failOn string
	calls  map[string]int
}

func (f *fakeInspector) record(op string) error {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
	if f.failOn == op {
		return errors.New("inspector unavailable")
	}
	return nil
}

func (f *fakeInspector) ListJobs() ([]RenderJob, error) {
	if err := f.record("jobs"); err != nil {
		return nil, err
	}
	return f.jobs, nil
}

func (f *fakeInspector) ListCameras() ([]Camera, error) {
	if err := f.record("cameras"); err != nil {
		return nil, err
	}
	return f.cameras, nil
}

func (f *fakeInspector) ListDomeLights() ([]DomeLight, error) {
	if err := f.record("domes"); err != nil {
		return nil, err
	}
	return f.domes, nil
}

func (f *fakeInspector) PlaybackRange() (FrameRange, error) {
	if err := f.record("playback"); err != nil {
		return FrameRange{}, err
	}
	return f.playback, nil
}

func (f *fakeInspector) FileState() (FileState, error) {
	if err := f.record("file"); err != nil {
		return FileState{}, err
	}
	return f.file, nil
}

// goodJob is a job that triggers no warnings against sceneWith's defaults.
func goodJob(id, camera string) RenderJob {
	return RenderJob{
		ID:              id,
		CameraRef:       camera,
		FrameRange:      FrameRange{First: 1, Last: 100},
		AOVNames:        []string{"Z", "U_CRYMAT_matte", "U_CRYOBJ_matte"},
		AOVChannelKinds: []ChannelKind{1, 24, 24},
		ZDepthEnabled:   true,
		GIEnabled:       true,
	}
}

func sceneWith(jobs ...RenderJob) *fakeInspector {
	return &fakeInspector{
		jobs: jobs,
		cameras: []Camera{
			{Path: "/obj/cam1", ResolutionX: 1920, ResolutionY: 1080, PixelAspect: 1},
			{Path: "/obj/cam2", ResolutionX: 1280, ResolutionY: 720, PixelAspect: 1},
		},
		domes:    []DomeLight{{ID: "rslightdome1", BackgroundVisible: true}},
		playback: FrameRange{First: 1, Last: 100},
		file:     FileState{FileName: "shot010_v003.hip"},
	}
}

func mustSnapshot(insp Inspector) SceneSnapshot {
	snap, err := Capture(insp)
	if err != nil {
		panic(err)
	}
	return snap
}

func issuesOf(issues []ValidationIssue, category Category) []ValidationIssue {
	var out []ValidationIssue
	for _, i := range issues {
		if i.Category == category {
			out = append(out, i)
		}
	}
	return out
}

func codesOf(issues []ValidationIssue) []Code {
	out := make([]Code, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}
