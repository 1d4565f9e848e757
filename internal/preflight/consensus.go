package preflight

import (
	"fmt"
	"strings"
)

// TieBreak decides the default camera when several cameras share the highest job count.
type TieBreak int

const (
	// TieBreakFirstSeen keeps the tied camera that appears first in job order.
	TieBreakFirstSeen TieBreak = iota
	// TieBreakLexicographic keeps the lexicographically smallest tied camera.
	TieBreakLexicographic
)

func (t TieBreak) String() string {
	switch t {
	case TieBreakFirstSeen:
		return "first-seen"
	case TieBreakLexicographic:
		return "lexicographic"
	default:
		return fmt.Sprintf("tiebreak(%d)", int(t))
	}
}

// ParseTieBreak accepts "first-seen" and "lexicographic".
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first-seen", "first_seen", "firstseen":
		return TieBreakFirstSeen, nil
	case "lexicographic", "lex":
		return TieBreakLexicographic, nil
	default:
		return TieBreakFirstSeen, fmt.Errorf("unknown tie-break policy %q", s)
	}
}

// CameraCount is the number of jobs bound to a camera.
type CameraCount struct {
	Camera string `json:"camera"`
	Jobs   int    `json:"jobs"`
}

// ConsensusResult is the majority camera derived from a snapshot.
type ConsensusResult struct {
	DefaultCamera string        `json:"default_camera"`
	Policy        TieBreak      `json:"-"`
	Tied          bool          `json:"tied"`
	Counts        []CameraCount `json:"counts"`
}

// Resolve counts camera bindings across all jobs and picks the camera with the highest
// count. Ties are settled by policy. A snapshot without jobs yields *NoJobsError.
func Resolve(snap SceneSnapshot, policy TieBreak) (ConsensusResult, error) {
	if len(snap.jobs) == 0 {
		return ConsensusResult{}, &NoJobsError{}
	}

	index := make(map[string]int)
	var counts []CameraCount
	for _, j := range snap.jobs {
		i, ok := index[j.CameraRef]
		if !ok {
			i = len(counts)
			index[j.CameraRef] = i
			counts = append(counts, CameraCount{Camera: j.CameraRef})
		}
		counts[i].Jobs++
	}

	best := 0
	tied := false
	for i := 1; i < len(counts); i++ {
		switch {
		case counts[i].Jobs > counts[best].Jobs:
			best = i
			tied = false
		case counts[i].Jobs == counts[best].Jobs:
			tied = true
			if policy == TieBreakLexicographic && counts[i].Camera < counts[best].Camera {
				best = i
			}
		}
	}

	return ConsensusResult{
		DefaultCamera: counts[best].Camera,
		Policy:        policy,
		Tied:          tied,
		Counts:        counts,
	}, nil
}

// CameraIssues reports the default camera and every job bound to a different one.
func CameraIssues(snap SceneSnapshot, consensus ConsensusResult) []ValidationIssue {
	out := []ValidationIssue{
		newIssue(CategoryCamera, SeverityInfo, consensus.DefaultCamera, CodeCameraDefault, map[string]string{
			FactCamera: consensus.DefaultCamera,
		}),
	}
	for _, j := range snap.jobs {
		if j.CameraRef == consensus.DefaultCamera {
			continue
		}
		out = append(out, newIssue(CategoryCamera, SeverityWarning, j.ID, CodeCameraMismatch, map[string]string{
			FactJob:    j.ID,
			FactCamera: j.CameraRef,
		}))
	}
	return out
}
