// cmd/overture/main.go
//
// Entry point for the overture CLI. It interprets one segment script into a
// score and writes the LilyPond source plus the segment metadata the next
// segment continues from.
//
// Flow:
// 1. Load .overture/config.yaml (and OVERTURE_* overrides)
// 2. Load the script and append matching plugin fragments
// 3. Seed rhythm from the previous segment's metadata, if given
// 4. Interpret, render, and write the .ly file and metadata
// 5. Optionally open the inspector TUI

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kingrea/overture/internal/command"
	"github.com/kingrea/overture/internal/config"
	"github.com/kingrea/overture/internal/lilypond"
	"github.com/kingrea/overture/internal/logging"
	"github.com/kingrea/overture/internal/script"
	"github.com/kingrea/overture/internal/tui"
	"github.com/kingrea/overture/plugins"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	project          string
	out              string
	metadata         string
	previousMetadata string
	pluginDirs       []string
	noPlugins        bool
	inspect          bool
	fingerprint      bool
	initProject      bool
	script           string
}

func run(args []string, stdout io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet("overture", pflag.ContinueOnError)
	flagSet.StringVar(&opts.project, "project", "", "project directory holding .overture/ (default: current directory)")
	flagSet.StringVarP(&opts.out, "out", "o", "", "LilyPond output path, - for stdout (default: <script>.ly)")
	flagSet.StringVar(&opts.metadata, "metadata", "", "where to write segment metadata (default: .overture/metadata/<id>.cbor)")
	flagSet.StringVar(&opts.previousMetadata, "previous-metadata", "", "metadata of the previous segment to continue rhythm from")
	flagSet.StringSliceVar(&opts.pluginDirs, "plugins", nil, "extra plugin directories (repeatable)")
	flagSet.BoolVar(&opts.noPlugins, "no-plugins", false, "skip configured plugin directories")
	flagSet.BoolVar(&opts.inspect, "inspect", false, "open the inspector after rendering")
	flagSet.BoolVar(&opts.fingerprint, "fingerprint", false, "print the score fingerprint")
	flagSet.BoolVar(&opts.initProject, "init", false, "create .overture/ in the project directory and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	project, err := resolveProject(opts.project)
	if err != nil {
		return err
	}
	if opts.initProject {
		if err := config.InitOvertureDir(project); err != nil {
			return fmt.Errorf("init .overture: %w", err)
		}
		fmt.Fprintf(stdout, "initialised %s\n", filepath.Join(project, config.OvertureDir))
		return nil
	}

	rest := flagSet.Args()
	switch len(rest) {
	case 0:
		return fmt.Errorf("a script path is required")
	case 1:
		opts.script = rest[0]
	default:
		return fmt.Errorf("unexpected argument: %s", rest[1])
	}
	return render(project, opts, stdout)
}

func resolveProject(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project dir: %w", err)
	}
	return abs, nil
}

func render(project string, opts options, stdout io.Writer) error {
	cfg, err := config.NewConfig(project)
	if err != nil {
		return err
	}
	logger, err := logging.ForConfig(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	file, err := script.LoadFileWithTemplate(opts.script, cfg.DefaultTemplate())
	if err != nil {
		return err
	}
	s := file.Script

	var dirs []string
	if !opts.noPlugins {
		dirs = append(dirs, cfg.PluginDirs()...)
	}
	dirs = append(dirs, opts.pluginDirs...)
	fragments, err := plugins.Discover(dirs...)
	if err != nil {
		return err
	}
	if added := plugins.Apply(&s, fragments); added > 0 {
		logger.Printf("plugins: appended %d entries to %s", added, s.ID)
		if s, err = s.Normalized(); err != nil {
			return err
		}
	}

	runOpts := script.RunOptions{Logger: logger}
	if opts.previousMetadata != "" {
		previous, err := readMetadata(opts.previousMetadata)
		if err != nil {
			return err
		}
		logger.Printf("metadata: continuing from %s (%s)", previous.Segment, previous.Fingerprint)
		runOpts.Seed = previous.States
	}
	outcome, err := script.Run(s, runOpts)
	if err != nil {
		return err
	}
	logger.Printf("script: %s completed=%d no-op=%d deactivated=%d filled=%d",
		s.ID,
		outcome.Report.Count(command.StatusCompleted),
		outcome.Report.Count(command.StatusNoOp),
		outcome.Report.Count(command.StatusDeactivated),
		outcome.Filled,
	)

	source, err := lilypond.Format(outcome.Score, renderOptions(cfg))
	if err != nil {
		return err
	}
	if err := writeSource(opts.out, file.Path, source, stdout); err != nil {
		return err
	}

	meta, err := outcome.Metadata()
	if err != nil {
		return err
	}
	metaPath := opts.metadata
	if metaPath == "" {
		metaPath = filepath.Join(cfg.MetadataDir(), s.ID+".cbor")
	}
	if err := writeMetadata(metaPath, meta); err != nil {
		return err
	}
	if opts.fingerprint {
		fmt.Fprintln(stdout, meta.Fingerprint)
	}

	if !opts.inspect {
		return nil
	}
	app, err := tui.NewApp(outcome, tui.WithSource(source), tui.WithLogger(logger))
	if err != nil {
		return err
	}
	return tui.Run(app)
}

func renderOptions(cfg *config.Config) lilypond.Options {
	return lilypond.Options{
		Indent:    strings.Repeat(" ", cfg.Project.Render.Indent),
		LineWidth: cfg.Project.Render.LineWidth,
	}
}

func writeSource(out, scriptPath, source string, stdout io.Writer) error {
	if out == "-" {
		_, err := io.WriteString(stdout, source)
		return err
	}
	if out == "" {
		out = strings.TrimSuffix(scriptPath, filepath.Ext(scriptPath)) + ".ly"
	}
	if err := os.WriteFile(out, []byte(source), 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

func readMetadata(path string) (command.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return command.Metadata{}, fmt.Errorf("read metadata %s: %w", path, err)
	}
	return command.DecodeMetadata(data)
}

func writeMetadata(path string, meta command.Metadata) error {
	data, err := command.EncodeMetadata(meta)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ensure metadata dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write metadata %s: %w", path, err)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `overture interprets a segment script into a LilyPond score.

Usage:
  overture [flags] <script.yaml|script.jsonc>

Examples:
  # Render segment_a.yaml to segment_a.ly
  overture segment_a.yaml

  # Continue rhythm from the previous segment
  overture --previous-metadata .overture/metadata/segment-a.cbor segment_b.yaml

  # Render to stdout and browse the result
  overture -o - --inspect segment_a.yaml

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
