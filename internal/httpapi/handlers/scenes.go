package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"preflight/internal/catalog"
	"preflight/internal/httpkit"
	perrors "preflight/internal/pkg/errors"
	"preflight/internal/pkg/logger"
	"preflight/internal/ports"
	"preflight/internal/preflight"
	"preflight/internal/repositories"
	"preflight/internal/worker/queue"
)

// PostScene catalogues an export document. ?name= overrides the display name.
func (h *Handler) PostScene(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	format, err := requestFormat(r)
	if err != nil {
		return err
	}
	raw, err := readExport(r)
	if err != nil {
		return err
	}

	rec, err := h.catalog.Register(ctx, r.URL.Query().Get("name"), format, raw)
	if err != nil {
		return sceneError(err, "register scene", "")
	}

	h.log.FromContext(ctx).Info("scene registered",
		"scene_id", rec.ID,
		"file", rec.FileName,
		"provider", rec.Provider,
	)
	httpkit.WriteJSON(w, http.StatusCreated, map[string]any{"scene": rec})
	return nil
}

func (h *Handler) ListScenes(w http.ResponseWriter, r *http.Request) error {
	scenes, err := h.catalog.List(r.Context())
	if err != nil {
		return perrors.Wrap(err, "list scenes", "db query failed")
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"scenes": scenes})
	return nil
}

func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "sceneId")
	rec, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		return sceneError(err, "get scene", id)
	}
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{"scene": rec})
	return nil
}

func (h *Handler) DeleteScene(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "sceneId")
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		return sceneError(err, "delete scene", id)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GetScenePreflight runs preflight over a catalogued scene and answers with the report.
func (h *Handler) GetScenePreflight(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id := chi.URLParam(r, "sceneId")

	minSeverity, err := minSeverityParam(r)
	if err != nil {
		return err
	}

	exp, _, err := h.catalog.Load(ctx, id)
	if err != nil {
		return sceneError(err, "load scene", id)
	}

	resp, err := h.run(exp, minSeverity)
	if err != nil {
		return err
	}
	resp.SceneID = id

	h.log.FromContext(logger.ContextWithSceneID(ctx, id)).Info("preflight finished",
		"issues", resp.Report.Len(),
		"errors", resp.Report.Count(preflight.SeverityError),
	)
	httpkit.WriteJSON(w, http.StatusOK, resp)
	return nil
}

// QueueScenePreflight hands a catalogued scene to the worker.
func (h *Handler) QueueScenePreflight(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id := chi.URLParam(r, "sceneId")

	if _, err := h.catalog.Get(ctx, id); err != nil {
		return sceneError(err, "queue preflight", id)
	}
	if err := h.queue.Push(ctx, id); err != nil {
		return perrors.WrapWithCode(err, perrors.CodeUnavailable, "queue preflight", "queue push failed")
	}

	httpkit.WriteJSON(w, http.StatusAccepted, map[string]any{
		"scene_id": id,
		"status":   "queued",
	})
	return nil
}

// GetSceneReport returns the pending asynchronous report of a scene. A report
// can be collected once; until the worker publishes it the answer is 404.
func (h *Handler) GetSceneReport(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "sceneId")

	payload, err := h.reports.Take(r.Context(), id)
	if errors.Is(err, queue.ErrNoReport) {
		return perrors.NotFound("report", id)
	}
	if err != nil {
		return perrors.WrapWithCode(err, perrors.CodeUnavailable, "take report", "report store unavailable")
	}

	httpkit.WriteRaw(w, http.StatusOK, payload)
	return nil
}

func sceneError(err error, op, id string) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, ports.ErrObjectNotFound):
		return perrors.NotFound("scene", id)
	case errors.Is(err, repositories.ErrSceneExists):
		return perrors.WrapWithCode(err, perrors.CodeConflict, op, "scene already exists")
	default:
		return perrors.FromPreflight(err, op)
	}
}
