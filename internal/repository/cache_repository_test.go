package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	ctx := context.Background()

	var classes []string
	err := repo.Get(ctx, "console:classes", &classes)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "console:classes", []string{"5A"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "console:*"))
	require.NoError(t, repo.Close())
}
