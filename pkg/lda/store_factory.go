package lda

import (
	"context"
	"fmt"

	"github.com/cognicore/lda/pkg/lda/config"
	"github.com/cognicore/lda/pkg/lda/internalerr"
	"github.com/cognicore/lda/pkg/lda/store"
	"github.com/cognicore/lda/pkg/lda/store/badgerstore"
	"github.com/cognicore/lda/pkg/lda/store/memstore"
	"github.com/cognicore/lda/pkg/lda/store/miniostore"
	"github.com/cognicore/lda/pkg/lda/store/sqlite"
)

// OpenStore opens the backend selected by cfg.Backend.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memstore.New(), nil
	case "sqlite":
		return sqlite.OpenSQLite(ctx, cfg.Path)
	case "badger":
		return badgerstore.Open(cfg.Path)
	case "minio":
		return miniostore.Open(ctx, miniostore.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Prefix:    cfg.Minio.Prefix,
			Secure:    cfg.Minio.Secure,
		})
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", internalerr.ErrInvalidConfig, cfg.Backend)
	}
}

// NewTrainOptions builds training options from the model and ingest
// sections of cfg.
func NewTrainOptions(cfg *config.Config, name string) TrainOptions {
	return TrainOptions{
		Name:        name,
		Language:    cfg.Ingest.Language,
		MinDocFreq:  cfg.Model.MinDocFreq,
		MaxDocRatio: cfg.Model.MaxDocRatio,
		Model:       cfg.TrainConfig(nil),
	}
}
