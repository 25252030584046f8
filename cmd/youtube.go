package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/ytstream/internal/formatter"
	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search lists videos matching the query argument.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	r.logger.Debug("searching", "query", query, "max", cmd.Int("max"), "page", cmd.String("page"))

	result, err := r.catalogService(ctx).Search(ctx, query, cmd.Int("max"), cmd.String("page"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}
	return formatter.RenderSearch(r.output, result)
}

// Video resolves the playable formats for the id argument, falling back to metadata only.
func (r *Runner) Video(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: video id is required", shared.ErrMissingArgument)
	}

	resolver, err := r.resolverService(ctx, nil)
	if err != nil {
		return err
	}

	bundle, err := resolver.Resolve(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", id, err)
	}
	if bundle.Degraded() {
		r.logger.Warn("stream extraction unavailable, showing metadata only", "id", id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(bundle, cmd.Bool("pretty"))
	}
	return formatter.RenderBundle(r.output, id, bundle)
}

// Suggest prints query completions, one per line.
func (r *Runner) Suggest(ctx context.Context, cmd *cli.Command) error {
	r.loadConfig(cmd)
	query := strings.TrimSpace(cmd.StringArg("query"))

	suggestions := []string{}
	if query != "" {
		suggestions = append(suggestions, r.catalogService(ctx).Suggestions(ctx, query)...)
	}

	if cmd.Bool("json") {
		return r.writeJSON(suggestions, cmd.Bool("pretty"))
	}
	if len(suggestions) == 0 {
		return r.writePlain("No suggestions\n")
	}
	for _, s := range suggestions {
		if err := r.writePlain("%s\n", s); err != nil {
			return err
		}
	}
	return nil
}
