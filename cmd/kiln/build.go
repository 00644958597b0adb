package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kiln/internal/buildpipeline"
	"kiln/internal/diag"
	"kiln/internal/project"
	"kiln/internal/resources"
	"kiln/internal/trace"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build a project or workspace",
	Long:  `Build compiles the project (or every workspace member) found at path, running its compile modules around the compiler`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringP("configuration", "c", buildpipeline.DefaultConfiguration, "build configuration (Debug|Release|...)")
	buildCmd.Flags().StringP("framework", "f", "", "target framework (defaults to the first declared)")
	buildCmd.Flags().StringP("output", "o", "", "output directory (single project only)")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	buildCmd.Flags().Int("jobs", 0, "max parallel jobs (0=auto)")
	buildCmd.Flags().Bool("no-cache", false, "disable the resource cache")
}

type buildOptions struct {
	configuration string
	framework     project.FrameworkName
	output        string
	ui            uiMode
	jobs          int
	noCache       bool
	quiet         bool
	timings       bool
}

func readBuildOptions(cmd *cobra.Command) (buildOptions, error) {
	var opts buildOptions
	var err error
	flags := cmd.Flags()
	if opts.configuration, err = flags.GetString("configuration"); err != nil {
		return opts, err
	}
	fw, err := flags.GetString("framework")
	if err != nil {
		return opts, err
	}
	if fw != "" {
		if opts.framework, err = project.ParseFrameworkName(fw); err != nil {
			return opts, fmt.Errorf("invalid --framework: %w", err)
		}
	}
	if opts.output, err = flags.GetString("output"); err != nil {
		return opts, err
	}
	uiFlag, err := flags.GetString("ui")
	if err != nil {
		return opts, err
	}
	if opts.ui, err = readUIMode(uiFlag); err != nil {
		return opts, err
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, err
	}
	if opts.noCache, err = flags.GetBool("no-cache"); err != nil {
		return opts, err
	}
	if opts.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet"); err != nil {
		return opts, err
	}
	if opts.timings, err = cmd.Root().PersistentFlags().GetBool("timings"); err != nil {
		return opts, err
	}
	return opts, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := readBuildOptions(cmd)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ws, err := loadWorkspace(args)
	if err != nil {
		return err
	}
	if opts.output != "" && len(ws.Projects) > 1 {
		return fmt.Errorf("--output needs a single project, %s has %d", ws.ManifestPath, len(ws.Projects))
	}

	template := buildpipeline.BuildRequest{
		Framework:     opts.framework,
		Configuration: opts.configuration,
		OutputDir:     opts.output,
		Jobs:          opts.jobs,
		Tracer:        trace.FromContext(cmd.Context()),
	}
	if !opts.noCache {
		template.Cache = openResourceCache(cmd.ErrOrStderr())
	}

	names := make([]string, len(ws.Projects))
	for i, p := range ws.Projects {
		names[i] = p.Name
	}

	var results []buildpipeline.BuildResult
	var planned []diag.Diagnostic
	build := func(sink buildpipeline.ProgressSink) error {
		req := template
		req.Progress = sink
		if len(ws.Projects) == 1 {
			req.Project = ws.Projects[0]
			res, err := buildpipeline.Build(cmd.Context(), &req)
			results = append(results, res)
			return err
		}
		res, err := buildpipeline.BuildWorkspace(cmd.Context(), &buildpipeline.WorkspaceRequest{
			Projects: ws.Projects,
			Template: req,
			Jobs:     opts.jobs,
		})
		results = res.Projects
		planned = res.Diagnostics
		return err
	}

	if shouldUseTUI(opts.ui) {
		err = runWithUI(filepath.Base(ws.Root), names, build)
	} else {
		err = build(nil)
	}

	return reportBuild(cmd, ws, opts, results, planned, err)
}

func loadWorkspace(args []string) (*project.Workspace, error) {
	start := "."
	if len(args) == 1 {
		start = args[0]
	}
	if info, err := os.Stat(start); err == nil && !info.IsDir() {
		return project.LoadWorkspace(start)
	}
	manifest, ok, err := project.FindManifest(start)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", start, project.ErrManifestNotFound)
	}
	return project.LoadWorkspace(manifest)
}

// openResourceCache returns nil (no caching) when the cache directory is
// unavailable.
func openResourceCache(warn io.Writer) *resources.Cache {
	dir, err := resources.DefaultCacheDir("kiln")
	if err == nil {
		var cache *resources.Cache
		if cache, err = resources.OpenCache(dir); err == nil {
			return cache
		}
	}
	fmt.Fprintf(warn, "warning: resource cache disabled: %v\n", err)
	return nil
}

func reportBuild(cmd *cobra.Command, ws *project.Workspace, opts buildOptions, results []buildpipeline.BuildResult, planned []diag.Diagnostic, buildErr error) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if err := printDiagnostics(errOut, planned, ws.Root, opts.quiet); err != nil {
		return err
	}
	for _, res := range results {
		if err := printDiagnostics(errOut, res.Diagnostics, ws.Root, opts.quiet); err != nil {
			return err
		}
		if opts.timings {
			if err := printStageTimings(out, res.Project, res.Timings); err != nil {
				return err
			}
			if err := printReport(out, res.Project, res.Run.Report); err != nil {
				return err
			}
		}
		if opts.quiet || len(res.Outputs) == 0 {
			continue
		}
		rel, err := filepath.Rel(ws.Root, res.OutputDir)
		if err != nil {
			rel = res.OutputDir
		}
		if _, err := fmt.Fprintf(out, "built %s -> %s\n", res.Project, rel); err != nil {
			return err
		}
	}

	switch {
	case buildErr == nil:
		return nil
	case errors.Is(buildErr, context.Canceled):
		return fmt.Errorf("build cancelled")
	case errors.Is(buildErr, buildpipeline.ErrDiagnostics):
		return fmt.Errorf("build failed")
	default:
		return buildErr
	}
}
