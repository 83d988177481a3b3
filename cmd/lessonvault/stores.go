package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abelbrown/lessonvault/internal/config"
	"github.com/abelbrown/lessonvault/internal/coord"
	"github.com/abelbrown/lessonvault/internal/logging"
	"github.com/abelbrown/lessonvault/internal/remote"
	"github.com/abelbrown/lessonvault/internal/remote/bucket"
	"github.com/abelbrown/lessonvault/internal/remote/rest"
	"github.com/abelbrown/lessonvault/internal/session"
	"github.com/abelbrown/lessonvault/internal/store"
)

// openStores builds the per-user store factory for the configured backend,
// optionally overlaying generated images from an S3 bucket.
func openStores(ctx context.Context, cfg *config.Config, sess *session.Context) (coord.StoreFunc, func(), error) {
	var (
		base    coord.StoreFunc
		closeFn = func() {}
	)

	switch cfg.Store.Backend {
	case "rest":
		client := rest.New(rest.Options{
			BaseURL: cfg.Store.RESTURL,
			APIKey:  cfg.Store.APIKey,
			Token:   sess.AccessToken,
		})
		base = func(string) remote.Store { return client }
		logging.Info("using REST content store", "url", cfg.Store.RESTURL)

	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.DBPath), 0755); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
		st, err := store.Open(cfg.Store.DBPath)
		if err != nil {
			return nil, nil, err
		}
		base = st.ForUser
		closeFn = func() { st.Close() }
		logging.Info("using sqlite content store", "path", cfg.Store.DBPath)
	}

	if cfg.Store.ImageBucket == "" {
		return base, closeFn, nil
	}

	client, err := bucket.NewClient(ctx, cfg.Store.ImageRegion)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	images := bucket.New(client, bucket.Options{
		Name:    cfg.Store.ImageBucket,
		Prefix:  cfg.Store.ImagePrefix,
		BaseURL: cfg.Store.ImageBaseURL,
	})
	logging.Info("listing images from bucket", "bucket", cfg.Store.ImageBucket, "prefix", cfg.Store.ImagePrefix)

	withImages := func(uid string) remote.Store {
		return remote.WithImages(base(uid), images.ForUser(uid))
	}
	return withImages, closeFn, nil
}
