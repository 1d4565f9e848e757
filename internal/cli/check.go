package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"preflight/internal/config"
	"preflight/internal/console"
	"preflight/internal/preflight"
	"preflight/internal/scene"
)

// GateError reports that a run found issues at or above the --fail-on severity.
type GateError struct {
	File     string
	Severity preflight.Severity
	Count    int
}

func (e *GateError) Error() string {
	return fmt.Sprintf("%s: %d issue(s) at or above %s", e.File, e.Count, e.Severity)
}

type checkOptions struct {
	format      string
	minSeverity string
	failOn      string
	tieBreak    string
	parallel    bool
	disable     []string
	watch       bool
	noColor     bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <export>",
		Short: "Validate a scene export",
		Long: `Validate a scene export (.yaml, .yml or .json) and print the report grouped
by category.

The command exits with status 1 when the report holds an issue at or above
--fail-on, so it can gate farm submission. Use --fail-on none to always exit 0
on a completed run.

Examples:
  preflight check shot010.yaml
  preflight check shot010.yaml --format json --min-severity warning
  preflight check shot010.yaml --disable Motion,GlobalIllumination
  preflight check shot010.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "table", "output format: table or json")
	f.StringVar(&opts.minSeverity, "min-severity", "info", "hide issues below this severity")
	f.StringVar(&opts.failOn, "fail-on", "error", "exit 1 when an issue at or above this severity exists (info, warning, error, none)")
	f.StringVar(&opts.tieBreak, "tie-break", "", "default camera tie-break: first-seen or lexicographic")
	f.BoolVar(&opts.parallel, "parallel", false, "evaluate rules concurrently")
	f.StringSliceVar(&opts.disable, "disable", nil, "rule categories to skip")
	f.BoolVarP(&opts.watch, "watch", "w", false, "re-run when the export changes")
	f.BoolVar(&opts.noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")
	return cmd
}

// checker is one configured check of one export file.
type checker struct {
	path        string
	engine      *preflight.Engine
	minSeverity preflight.Severity
	failOn      *preflight.Severity
	format      string
	out         io.Writer
	render      *console.Renderer
}

func runCheck(cmd *cobra.Command, path string, opts *checkOptions) error {
	c, err := newChecker(cmd, path, opts)
	if err != nil {
		return err
	}
	if !opts.watch {
		return c.run()
	}
	return watch(cmd.Context(), path, loggerFrom(cmd.Context()), c.run, cmd.ErrOrStderr())
}

func newChecker(cmd *cobra.Command, path string, opts *checkOptions) (*checker, error) {
	engineOpts, err := engineOptions(cmd, opts)
	if err != nil {
		return nil, err
	}

	minSeverity, err := preflight.ParseSeverity(opts.minSeverity)
	if err != nil {
		return nil, fmt.Errorf("--min-severity: %w", err)
	}

	var failOn *preflight.Severity
	if !strings.EqualFold(strings.TrimSpace(opts.failOn), "none") {
		s, err := preflight.ParseSeverity(opts.failOn)
		if err != nil {
			return nil, fmt.Errorf("--fail-on: %w", err)
		}
		failOn = &s
	}

	switch opts.format {
	case "table", "json":
	default:
		return nil, fmt.Errorf("--format: unknown format %q", opts.format)
	}

	out := cmd.OutOrStdout()
	return &checker{
		path:        path,
		engine:      preflight.NewEngine(engineOpts),
		minSeverity: minSeverity,
		failOn:      failOn,
		format:      opts.format,
		out:         out,
		render:      console.NewRenderer(out, !opts.noColor),
	}, nil
}

// engineOptions starts from the PREFLIGHT_* environment and applies the flags that were set.
func engineOptions(cmd *cobra.Command, opts *checkOptions) (preflight.Options, error) {
	engineOpts, err := config.LoadRules()
	if err != nil {
		return preflight.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("tie-break") {
		tie, err := preflight.ParseTieBreak(opts.tieBreak)
		if err != nil {
			return preflight.Options{}, fmt.Errorf("--tie-break: %w", err)
		}
		engineOpts.TieBreak = tie
	}
	if flags.Changed("parallel") {
		engineOpts.Parallel = opts.parallel
	}
	for _, name := range opts.disable {
		c, err := preflight.ParseCategory(name)
		if err != nil {
			return preflight.Options{}, fmt.Errorf("--disable: %w", err)
		}
		engineOpts.Disabled = append(engineOpts.Disabled, c)
	}
	return engineOpts, nil
}

// checkOutput is the --format json document.
type checkOutput struct {
	File          string                  `json:"file"`
	DefaultCamera string                  `json:"default_camera"`
	CameraTied    bool                    `json:"camera_tied"`
	CameraCounts  []preflight.CameraCount `json:"camera_counts"`
	Report        preflight.Report        `json:"report"`
}

func (c *checker) run() error {
	exp, err := scene.LoadFile(c.path)
	if err != nil {
		return err
	}
	res, err := c.engine.Run(scene.NewInspector(exp))
	if err != nil {
		return fmt.Errorf("%s: %w", c.path, err)
	}

	shown := res.Report.Filter(c.minSeverity)
	switch c.format {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(checkOutput{
			File:          exp.File.Name,
			DefaultCamera: res.Consensus.DefaultCamera,
			CameraTied:    res.Consensus.Tied,
			CameraCounts:  res.Consensus.Counts,
			Report:        shown,
		}); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	default:
		c.render.Report(exp.File.Name, res.Consensus, shown)
	}

	// The gate looks at the full report so --min-severity cannot hide a failure.
	if c.failOn != nil {
		if n := res.Report.Filter(*c.failOn).Len(); n > 0 {
			return &GateError{File: c.path, Severity: *c.failOn, Count: n}
		}
	}
	return nil
}

