package processor

import (
	"context"
	"encoding/json"
	"time"

	"preflight/internal/catalog"
	"preflight/internal/pkg/errors"
	"preflight/internal/pkg/logger"
	"preflight/internal/ports"
	"preflight/internal/preflight"
	"preflight/internal/scene"
	"preflight/internal/worker/queue"
)

// SceneSource loads a catalogued scene export.
type SceneSource interface {
	LoadScene(ctx context.Context, sceneID string) (*scene.Export, error)
}

// ReportSink receives the encoded report envelope of a scene.
type ReportSink interface {
	Put(ctx context.Context, sceneID string, payload []byte) error
}

type Deps struct {
	Source SceneSource
	Sink   ReportSink
	Engine *preflight.Engine
	Log    *logger.Logger
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

type Processor struct {
	source SceneSource
	sink   ReportSink
	engine *preflight.Engine
	log    *logger.Logger
	now    func() time.Time
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	engine := d.Engine
	if engine == nil {
		engine = preflight.NewEngine(preflight.Options{})
	}
	return &Processor{
		source: d.Source,
		sink:   d.Sink,
		engine: engine,
		log:    log.WithComponent("processor"),
		now:    now,
	}
}

// Process validates one scene and publishes the outcome. Every request produces an
// envelope, a failed one when the scene cannot be loaded or validated, so a client
// polling for the report always gets an answer. The returned error is the run failure,
// or the publish failure if the envelope could not be stored.
func (p *Processor) Process(ctx context.Context, sceneID string) error {
	log := p.log.FromContext(ctx).WithSceneID(sceneID)

	env := queue.ReportEnvelope{SceneID: sceneID}
	runErr := p.run(ctx, sceneID, &env)
	env.FinishedAt = p.now().UTC()

	if runErr != nil {
		env.Status = queue.StatusFailed
		env.Error = &queue.EnvelopeError{
			Code:    string(errors.GetCode(runErr)),
			Message: runErr.Error(),
		}
		log.Warn("preflight failed", "code", env.Error.Code, "error", runErr.Error())
	} else {
		env.Status = queue.StatusDone
		s := env.Report.Summary()
		log.Info("preflight finished",
			"issues", env.Report.Len(),
			"errors", s.Error,
			"warnings", s.Warning,
		)
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "processor.encode", "failed to encode report")
	}
	if err := p.sink.Put(ctx, sceneID, payload); err != nil {
		return errors.WrapWithCode(err, errors.CodeUnavailable, "processor.publish", "failed to publish report")
	}
	return runErr
}

func (p *Processor) run(ctx context.Context, sceneID string, env *queue.ReportEnvelope) error {
	exp, err := p.source.LoadScene(ctx, sceneID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, ports.ErrObjectNotFound) {
			return errors.WrapWithCode(err, errors.CodeNotFound, "processor.load", "scene export not found")
		}
		return errors.FromPreflight(err, "processor.load")
	}
	result, err := p.engine.Run(scene.NewInspector(exp))
	if err != nil {
		return errors.FromPreflight(err, "processor.validate")
	}
	env.Report = &result.Report
	return nil
}
