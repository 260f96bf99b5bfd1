package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"starset-backend/app"
	"starset-backend/blob"
	"starset-backend/config"
	"starset-backend/metrics"
	"starset-backend/storage"
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if !cfg.BlobConfigured() {
				return fmt.Errorf("object storage credentials missing (B2_APPLICATION_KEY_ID, B2_APPLICATION_KEY, B2_BUCKET_ID, B2_BUCKET_NAME)")
			}
			uploader := blob.NewClient(blob.Config{
				KeyID:      cfg.Blob.KeyID,
				AppKey:     cfg.Blob.AppKey,
				BucketID:   cfg.Blob.BucketID,
				BucketName: cfg.Blob.BucketName,
				APIBase:    cfg.Blob.APIBase,
				Timeout:    cfg.BlobTimeout(),
			})
			uploader.OnReauth = metrics.UploadReauths.Inc

			handler := app.NewRouter(store, uploader, cfg.RequestTimeout())

			log.Printf("Starset backend listening on %s (store=%s)", cfg.Server.Bind, cfg.Store.Driver)
			return http.ListenAndServe(cfg.Server.Bind, handler)
		},
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return storage.NewPostgresStore(ctx, cfg.Store.PostgresDSN)
	default:
		return storage.NewSQLiteStore(ctx, cfg.Store.SQLitePath)
	}
}
