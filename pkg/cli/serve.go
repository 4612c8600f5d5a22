package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"github.com/voxmock/voxmock/pkg/server"
	"github.com/voxmock/voxmock/pkg/usecase/evaluate"
	"github.com/voxmock/voxmock/pkg/usecase/interview"
	"github.com/voxmock/voxmock/pkg/usecase/memory"
	"github.com/voxmock/voxmock/pkg/utils/logging"
)

func serveCommand() *cli.Command {
	var cfg config
	var addr string
	var workers int64

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP listen address",
			Value:       ":8080",
			Sources:     cli.EnvVars("VOXMOCK_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Number of evaluation workers",
			Value:       4,
			Sources:     cli.EnvVars("VOXMOCK_WORKERS"),
			Destination: &workers,
		},
	}
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, vectorFlags(&cfg)...)
	flags = append(flags, serviceFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the interview API server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := logging.From(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			index, err := cfg.newVectorIndex(ctx)
			if err != nil {
				return err
			}
			transcriber, err := cfg.newTranscriber()
			if err != nil {
				return err
			}
			analysis := cfg.newAnalysis()
			archive, err := cfg.newArchive(ctx)
			if err != nil {
				return err
			}
			classifier, err := cfg.newClassifier()
			if err != nil {
				return err
			}

			evalOpts := []evaluate.Option{}
			if analysis != nil {
				evalOpts = append(evalOpts, evaluate.WithAnalysis(analysis))
			}
			evaluator := evaluate.New(repo, gemini, evalOpts...)

			// The pool outlives the signal context so queued evaluations
			// drain during shutdown
			pool := evaluate.NewPool(evaluator, evaluate.WithWorkers(int(workers)))
			pool.Start(logging.With(context.Background(), logger))

			builder := memory.NewBuilder(repo, gemini, index)
			extractor := memory.NewExtractor(repo, gemini, index, memory.WithClassifier(classifier))

			ucOpts := []interview.Option{
				interview.WithContextBuilder(builder),
				interview.WithExtractor(extractor),
				interview.WithCompletionChecker(evaluator),
			}
			if archive != nil {
				ucOpts = append(ucOpts, interview.WithArchive(archive))
			}
			uc := interview.New(repo, gemini, transcriber, analysis, pool, ucOpts...)

			srv := server.New(addr, uc)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run(ctx)
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-errCh:
				if err != nil {
					return err
				}
			}

			// Stop accepting requests first, then drain queued evaluations
			if err := srv.Stop(context.Background()); err != nil {
				logger.Error("server shutdown failed", "error", err)
			}
			pool.Stop()
			return nil
		},
	}
}
