package miniostore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognicore/lda/pkg/lda/store/storetest"
)

// TestStoreContract requires a running MinIO instance.
// Skip if not available.
func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "test-lda",
		Prefix:    "contract-" + t.Name(),
	})
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	ids, err := s.List(ctx, "")
	if err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	for _, id := range ids {
		_ = s.Delete(ctx, id)
	}

	storetest.Run(t, s)
}

func TestKeyLayout(t *testing.T) {
	s := NewStore(nil, "bucket", "models/")
	assert.Equal(t, "models/news/2024.ldam", s.key("news/2024"))

	s = NewStore(nil, "bucket", "")
	assert.Equal(t, "reuters.ldam", s.key("reuters"))
}
