package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/voxmock/voxmock/pkg/usecase/memory"
)

func contextCommand() *cli.Command {
	var cfg config
	var userID string
	var skills []string

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID to inspect",
			Required:    true,
			Destination: &userID,
		},
		&cli.StringSliceFlag{
			Name:        "skills",
			Aliases:     []string{"s"},
			Usage:       "Skills to query similar memories for",
			Destination: &skills,
		},
	}
	flags = append(flags, repositoryFlags(&cfg)...)
	flags = append(flags, geminiFlags(&cfg)...)
	flags = append(flags, vectorFlags(&cfg)...)

	return &cli.Command{
		Name:  "context",
		Usage: "Show the personalization context that would seed a user's next interview",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
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

			builder := memory.NewBuilder(repo, gemini, index)
			history, err := builder.Build(ctx, userID, skills)
			if err != nil {
				return goerr.Wrap(err, "failed to build context")
			}
			if history == nil {
				fmt.Println("no history for user")
				return nil
			}

			fmt.Print(history.Text)
			if len(history.SimilarPast) > 0 {
				fmt.Println("\nSimilar Past Memories:")
				for _, m := range history.SimilarPast {
					fmt.Printf("- [%.2f] %s\n", m.Score, m.Payload.Text)
				}
			}
			return nil
		},
	}
}
