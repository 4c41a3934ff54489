package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/senseable-go/pkg/auth"
	"github.com/theapemachine/senseable-go/pkg/service"
	"github.com/theapemachine/senseable-go/pkg/stores/s3"
)

var (
	portFlag int
	hostFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the rewrite API over HTTP",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			system, err := bootstrap()
			if err != nil {
				return err
			}

			if viper.GetBool("stores.s3.enabled") {
				if err := seedCorpus(cmd.Context(), system); err != nil {
					log.Warn("corpus seeding failed, serving without fresh index", "error", err)
				}
			}

			secret := viper.GetString("server.jwt_secret")
			if secret == "" {
				return fmt.Errorf("server.jwt_secret must be configured")
			}

			server := service.NewServer(
				system.pipeline,
				system.fingerprints,
				system.history,
				auth.NewService(secret),
				service.WithAddr(fmt.Sprintf("%s:%d", hostFlag, portFlag)),
			)

			return server.Start()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 3210, "Port to serve on")
	serveCmd.Flags().StringVarP(&hostFlag, "host", "H", "0.0.0.0", "Host address to bind to")
}

/*
seedCorpus loads the metaphor corpus from object storage, embeds every
entry, and upserts it into the vector index. Runs once at startup; a stale
index is preferable to blocking serving, so failures only warn.
*/
func seedCorpus(ctx context.Context, system *components) error {
	source, err := s3.NewSource(
		s3.WithEndpoint(
			viper.GetString("stores.s3.endpoint"),
			viper.GetString("stores.s3.access_key"),
			viper.GetString("stores.s3.secret_key"),
			viper.GetBool("stores.s3.secure"),
		),
		s3.WithBucket(viper.GetString("stores.s3.bucket")),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	docs, err := source.Load(ctx)
	if err != nil {
		return err
	}

	const batchSize = 64

	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}

		vectors, err := system.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}

		for i := range batch {
			batch[i].Embedding = vectors[i]
		}

		if err := system.index.Put(ctx, batch); err != nil {
			return err
		}
	}

	log.Info("seeded corpus index", "documents", len(docs))

	return nil
}

var longServe = `
Serve the rewrite API.

Examples:
  # Serve on the default port
  senseable-go serve

  # Serve on port 8080
  senseable-go serve --port 8080
`
