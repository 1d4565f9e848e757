package handlers

import (
	"errors"
	"net/http"
	"strings"

	"preflight/internal/httpkit"
	perrors "preflight/internal/pkg/errors"
	"preflight/internal/preflight"
	"preflight/internal/scene"
)

// PreflightResponse is the body of a synchronous preflight run.
type PreflightResponse struct {
	SceneID       string                  `json:"scene_id,omitempty"`
	DefaultCamera string                  `json:"default_camera"`
	CameraTied    bool                    `json:"camera_tied"`
	CameraCounts  []preflight.CameraCount `json:"camera_counts"`
	Report        preflight.Report        `json:"report"`
}

// PostPreflight validates an export document sent in the request body without
// cataloguing it. The body format follows Content-Type unless ?format= is given.
func (h *Handler) PostPreflight(w http.ResponseWriter, r *http.Request) error {
	minSeverity, err := minSeverityParam(r)
	if err != nil {
		return err
	}
	format, err := requestFormat(r)
	if err != nil {
		return err
	}
	raw, err := readExport(r)
	if err != nil {
		return err
	}

	exp, err := scene.DecodeBytes(raw, format)
	if err != nil {
		return perrors.FromPreflight(err, "preflight")
	}

	resp, err := h.run(exp, minSeverity)
	if err != nil {
		return err
	}
	h.log.FromContext(r.Context()).Info("preflight finished",
		"file", exp.File.Name,
		"issues", resp.Report.Len(),
		"errors", resp.Report.Count(preflight.SeverityError),
	)
	httpkit.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func (h *Handler) run(exp *scene.Export, minSeverity preflight.Severity) (*PreflightResponse, error) {
	res, err := h.engine.Run(scene.NewInspector(exp))
	if err != nil {
		return nil, perrors.FromPreflight(err, "preflight")
	}
	return &PreflightResponse{
		DefaultCamera: res.Consensus.DefaultCamera,
		CameraTied:    res.Consensus.Tied,
		CameraCounts:  res.Consensus.Counts,
		Report:        res.Report.Filter(minSeverity),
	}, nil
}

func minSeverityParam(r *http.Request) (preflight.Severity, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("min_severity"))
	if raw == "" {
		return preflight.SeverityInfo, nil
	}
	s, err := preflight.ParseSeverity(raw)
	if err != nil {
		return 0, perrors.Validation(err.Error()).WithField("field", "min_severity")
	}
	return s, nil
}

func requestFormat(r *http.Request) (scene.Format, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("format")); raw != "" {
		f, err := scene.ParseFormat(raw)
		if err != nil {
			return "", perrors.New(perrors.CodeUnsupportedMedia, err.Error())
		}
		return f, nil
	}
	return scene.FormatFromContentType(r.Header.Get("Content-Type")), nil
}

func readExport(r *http.Request) ([]byte, error) {
	raw, err := httpkit.ReadBody(r, httpkit.MaxBodyBytes)
	if errors.Is(err, httpkit.ErrBodyTooLarge) {
		return nil, perrors.WrapWithCode(err, perrors.CodeBadRequest, "read body", "scene export exceeds 8 MiB")
	}
	if err != nil {
		return nil, perrors.WrapWithCode(err, perrors.CodeBadRequest, "read body", "could not read request body")
	}
	if len(raw) == 0 {
		return nil, perrors.Validation("request body is empty")
	}
	return raw, nil
}
