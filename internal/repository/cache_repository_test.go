package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/obs-timetable-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "proposals:all", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "proposals:all", []string{"a"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "proposals:*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}
