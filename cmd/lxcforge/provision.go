package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lxcforge/internal/config"
	"lxcforge/internal/container"
	"lxcforge/internal/provision"
	"lxcforge/internal/recipe"
	"lxcforge/internal/release"
	"lxcforge/internal/report"
)

// prefixFromArgs returns the validated container name prefix, defaulting
// to "test".
func prefixFromArgs(args []string) (string, error) {
	prefix := "test"
	if len(args) > 0 {
		prefix = args[0]
	}
	if err := recipe.ValidatePrefix(prefix); err != nil {
		return "", err
	}
	return prefix, nil
}

// provisionOne drives a full recipe run: config, codename resolution,
// container handle, steps, report fields.
func provisionOne(ctx context.Context, kind, prefix string) (report.Fields, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to read hostname: %w", err)
	}

	resolver := release.NewResolver(cfg.Debian.ReleaseURL, cfg.Debian.FallbackRelease,
		cfg.ReleaseLookupTimeout(), logger)
	codename := resolver.StableCodename(ctx)

	name := recipe.ContainerName(prefix, kind, codename)
	c, err := container.New(name, cfg.LXCPath)
	if err != nil {
		return nil, err
	}
	if c.Defined() {
		return nil, fmt.Errorf("container %s: %w", name, container.ErrAlreadyExists)
	}

	runID := uuid.NewString()
	log := logger.With(zap.String("run_id", runID), zap.String("recipe", kind))

	r, err := recipe.New(kind, c, recipe.Params{
		Prefix:   prefix,
		Codename: codename,
		Arch:     cfg.Debian.Arch,
		Hostname: hostname,
		RunID:    runID,
		Stream:   showOutput,
		Cfg:      cfg,
	})
	if err != nil {
		return nil, err
	}

	engine := provision.NewEngine(log, keep)
	res, err := engine.Run(ctx, c, r.Steps())
	if err != nil {
		return nil, err
	}
	log.Info("provisioning finished",
		zap.Int("steps", res.Steps),
		zap.Duration("elapsed", res.Elapsed))

	return r.Report(), nil
}

// runRecipe adapts a recipe kind to a cobra RunE.
func runRecipe(kind string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		prefix, err := prefixFromArgs(args)
		if err != nil {
			return err
		}
		fields, err := provisionOne(cmd.Context(), kind, prefix)
		if err != nil {
			return err
		}
		return report.Write(os.Stdout, fields)
	}
}
