package summary

import (
	"context"
	"fmt"
	"os"

	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/configuration"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run analyzes every configured repository, in order, and returns the paths of
// the CSV files that were written. At most `config.Jobs` repositories are
// analyzed at the same time. The first error stops the run: repositories that
// were not started yet are not analyzed.
func Run(ctx context.Context, logger *zap.Logger, config configuration.Configuration, order OrderFunc) ([]string, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output folder %s: %w", config.OutputFolder, err)
	}

	outputs := make([]string, len(config.Repositories))
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(config.Jobs)
	for i, repository := range config.Repositories {
		if groupCtx.Err() != nil {
			break
		}
		i, repository := i, repository
		g.Go(func() error {
			// a previous repository may have failed while this one was waiting
			if groupCtx.Err() != nil {
				return nil
			}
			output, err := Analyze(groupCtx, logger, config, order, repository)
			if err != nil {
				return err
			}
			outputs[i] = output
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// the parent context may be done without any analysis failing
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if o != "" {
			written = append(written, o)
		}
	}
	logger.Info("all repositories analyzed", zap.String("output-folder", config.OutputFolder), zap.Int("summaries", len(written)))
	return written, nil
}
