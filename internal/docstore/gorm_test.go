package docstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-sklad/internal/apperr"
)

func newGormStore(t *testing.T, notifier Notifier) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s := NewGormStore(db, notifier, logrus.New())
	require.NoError(t, s.AutoMigrate())
	return s
}

func TestGormStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t, nil)

	id, err := s.Create(ctx, "purchases", Fields{"userId": "u1", "supplier": "A", "quantity": 5, "createdAt": ServerTimestamp})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "purchases", id, Fields{"isArchived": true}))

	doc, err := s.Get(ctx, "purchases", id)
	require.NoError(t, err)
	assert.Equal(t, true, doc.Fields["isArchived"])
	assert.Equal(t, float64(5), doc.Fields["quantity"])

	_, err = s.Get(ctx, "warehouse", id)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "documents are scoped to their collection")

	err = s.Update(ctx, "purchases", "nope", Fields{"x": 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGormStoreQueryAndSubscribe(t *testing.T) {
	ctx := context.Background()
	s := newGormStore(t, nil)

	sub, err := s.Subscribe(ctx, "sales", Query{Filters: []Filter{Eq("userId", "u1")}})
	require.NoError(t, err)
	defer sub.Cancel()
	<-sub.Events()

	for _, total := range []int{300, 100} {
		_, err := s.Create(ctx, "sales", Fields{"userId": "u1", "totalAmount": total})
		require.NoError(t, err)
	}
	_, err = s.Create(ctx, "sales", Fields{"userId": "u2", "totalAmount": 50})
	require.NoError(t, err)

	docs, err := s.Query(ctx, "sales", Query{
		Filters: []Filter{Eq("userId", "u1")},
		OrderBy: []OrderBy{{Field: "totalAmount"}},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, float64(100), docs[0].Fields["totalAmount"])

	assert.Eventually(t, func() bool {
		select {
		case snap := <-sub.Events():
			return len(snap.Docs) == 2
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisNotifierRelaysChanges(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("set REDIS_ADDR to run redis integration tests")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	notifier := NewRedisNotifier(client, "go-sklad-test-changes")

	got := make(chan string, 1)
	go func() {
		_ = notifier.Listen(ctx, func(collection string) {
			select {
			case got <- collection:
			default:
			}
		})
	}()

	assert.Eventually(t, func() bool {
		_ = notifier.Publish(ctx, "warehouse")
		select {
		case c := <-got:
			return c == "warehouse"
		default:
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)
}
