package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"fetalhealth/pkg/config"
	"fetalhealth/pkg/logging"
	"fetalhealth/pkg/pipeline"
)

var (
	version = "v0.0.1-default"
	commit  = ""
)

const (
	inputFlagName     = "input"
	configFlagName    = "config"
	outputDirFlagName = "output-dir"
	seedFlagName      = "seed"
	jobsFlagName      = "jobs"
	debugFlagName     = "debug"
)

// flags returns fresh flag values; cli flags keep parse state, so every
// command gets its own set.
func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    inputFlagName,
			Aliases: []string{"i"},
			Usage:   "Path to the CTG dataset CSV (optional, default: " + config.DefaultInput + ")",
			Sources: cli.EnvVars("FETALHEALTH_INPUT"),
		},
		&cli.StringFlag{
			Name:    configFlagName,
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config file (optional)",
			Sources: cli.EnvVars("FETALHEALTH_CONFIG"),
		},
		&cli.StringFlag{
			Name:  outputDirFlagName,
			Usage: "Directory the images are written to (optional, default: .)",
		},
		&cli.Int64Flag{
			Name:  seedFlagName,
			Usage: "Seed for the split and the forest (optional, default: 42)",
		},
		&cli.IntFlag{
			Name:  jobsFlagName,
			Usage: "Trees trained in parallel (optional, default: number of CPUs)",
		},
		&cli.BoolFlag{
			Name:  debugFlagName,
			Usage: "Prints verbose logs (optional, default: false)",
		},
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "fetalhealth",
		Version:   fmt.Sprintf("%s (commit: %s)", version, commit),
		Usage:     "Train and evaluate a random forest on cardiotocography exams",
		ArgsUsage: "[input.csv]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     flags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := "info"
			if cmd.Bool(debugFlagName) {
				level = "debug"
			}
			log := logging.SetDefaultCLILogger(stderr, level)

			cfg, err := loadConfig(cmd)
			if err != nil {
				log.Error("invalid configuration", "error", err)
				return err
			}

			if _, err := pipeline.Run(ctx, cfg, stdout, log); err != nil {
				var se *pipeline.StageError
				if errors.As(err, &se) {
					log.Error("stage failed", "stage", se.Stage, "error", se.Err)
				} else {
					log.Error("run failed", "error", err)
				}
				return err
			}
			return nil
		},
	}
}

// loadConfig merges defaults, the optional config file and flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()
	if path := cmd.String(configFlagName); path != "" {
		c, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	if in := cmd.Args().First(); in != "" {
		cfg.Input = in
	}
	if in := cmd.String(inputFlagName); in != "" {
		cfg.Input = in
	}
	if dir := cmd.String(outputDirFlagName); dir != "" {
		cfg.Output.Dir = dir
	}
	if cmd.IsSet(seedFlagName) {
		cfg.Seed = cmd.Int64(seedFlagName)
	}
	if cmd.IsSet(jobsFlagName) {
		cfg.Forest.Jobs = cmd.Int(jobsFlagName)
	}
	cfg.Input = resolveInput(cfg.Input)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveInput keeps paths that exist relative to the working directory and
// otherwise looks next to the executable.
func resolveInput(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	candidate := filepath.Join(filepath.Dir(exe), path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}
