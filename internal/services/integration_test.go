package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/localnerve/homespace/internal/cache"
	"github.com/localnerve/homespace/internal/database"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// slowFetcher widens the window between lookup and insert so concurrent resolves collide
type slowFetcher struct {
	delay time.Duration
}

func (f slowFetcher) Fetch(ctx context.Context, url string) (map[string]string, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return map[string]string{"title": url}, nil
}

func setupContainerDB(t *testing.T) (*testhelpers.TestContainers, *gorm.DB) {
	t.Helper()
	testhelpers.SkipWithoutDocker(t)

	tc, err := testhelpers.CreateAllTestContainers(t)
	require.NoError(t, err)
	t.Cleanup(func() { tc.Terminate(t) })

	db, err := database.Connect(tc.Config(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))
	return tc, db
}

func TestIntegrationConcurrentResolve(t *testing.T) {
	_, db := setupContainerDB(t)
	registry := NewLinkRegistry(db, slowFetcher{delay: 200 * time.Millisecond}, zap.NewNop())

	users := make([]*models.User, 5)
	for i := range users {
		users[i] = testhelpers.CreateTestUser(t, db, testhelpers.RandomName("racer"))
	}

	ids := make([]string, len(users))
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(i int, user *models.User) {
			defer wg.Done()
			link, err := registry.Resolve(context.Background(), "https://race.example/path", user)
			errs[i] = err
			if link != nil {
				ids[i] = link.ID
			}
		}(i, user)
	}
	wg.Wait()

	for i := range users {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int64(1), testhelpers.CountRows(t, db, &models.Link{}, "url = ?", "https://race.example/path"))
}

func TestIntegrationCloneAndCascade(t *testing.T) {
	_, db := setupContainerDB(t)
	ctx := context.Background()
	spaces := NewSpaceService(db, zap.NewNop())

	owner := testhelpers.CreateTestUser(t, db, testhelpers.RandomName("owner"))
	cloner := testhelpers.CreateTestUser(t, db, testhelpers.RandomName("cloner"))
	source := testhelpers.CreateTestSpace(t, db, owner, "Shared", models.SpaceAccessPublic)
	link := testhelpers.CreateTestLink(t, db, owner, "https://shared.example", map[string]string{"title": "Shared"})
	testhelpers.CreateTestWidget(t, db, source, models.WidgetTypeLink, nil, link)
	testhelpers.CreateTestWidget(t, db, source, models.WidgetTypeText, map[string]interface{}{"text": "hello"}, nil)

	clone, err := spaces.Clone(ctx, cloner, source.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shared (clone)", clone.Name)
	require.Len(t, clone.Widgets, 2)

	require.NoError(t, spaces.Delete(ctx, owner, source.ID))

	var survivor models.Space
	require.NoError(t, db.First(&survivor, "id = ?", clone.UID).Error)
	assert.Nil(t, survivor.ClonedFromID)
	assert.Equal(t, int64(2), testhelpers.CountRows(t, db, &models.Widget{}, "space_id = ?", clone.UID))
}

func TestIntegrationRedisPreviewCache(t *testing.T) {
	tc, _ := setupContainerDB(t)

	rc, err := cache.NewRedisCache(tc.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	preview := NewPreviewService(slowFetcher{}, rc, time.Minute, zap.NewNop())
	meta, err := preview.Preview(context.Background(), "cache.example/page")
	require.NoError(t, err)
	assert.Equal(t, "https://cache.example/page", meta["title"])

	raw, err := rc.Get(context.Background(), models.HashURL("https://cache.example/page"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"https://cache.example/page"}`, string(raw))
}
