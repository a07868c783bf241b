package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/toolcrib/toolcrib-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ddl := `CREATE TABLE items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  location TEXT NOT NULL DEFAULT '',
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := db.Exec(ddl).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(newTestDB(t)))
	require.NoError(t, err)
	return svc
}

func TestCreateItemTrimsAndPersists(t *testing.T) {
	svc := newTestService(t)

	item, err := svc.CreateItem(context.Background(), CreateItemInput{
		Name:     "  hammer  ",
		Location: " shelf B ",
		Stock:    3,
	})
	require.NoError(t, err)
	require.Equal(t, "hammer", item.Name)
	require.Equal(t, "shelf B", item.Location)
	require.Equal(t, 3, item.Stock)

	got, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.Equal(t, item.ID, got.ID)
}

func TestCreateItemValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateItem(context.Background(), CreateItemInput{Name: "   "})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.CreateItem(context.Background(), CreateItemInput{Name: "drill", Stock: -1})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestCreateItemDuplicateNameConflicts(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateItem(context.Background(), CreateItemInput{Name: "drill", Stock: 1})
	require.NoError(t, err)

	_, err = svc.CreateItem(context.Background(), CreateItemInput{Name: "drill", Stock: 2})
	require.Error(t, err)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestGetItemUnknownIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetItem(context.Background(), uuid.New())
	require.Error(t, err)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestRestockAddsUnits(t *testing.T) {
	svc := newTestService(t)

	item, err := svc.CreateItem(context.Background(), CreateItemInput{Name: "clamp", Stock: 2})
	require.NoError(t, err)

	updated, err := svc.Restock(context.Background(), item.ID, 5)
	require.NoError(t, err)
	require.Equal(t, 7, updated.Stock)

	_, err = svc.Restock(context.Background(), item.ID, 0)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Restock(context.Background(), uuid.New(), 1)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListItemsOrderedByName(t *testing.T) {
	svc := newTestService(t)

	for _, name := range []string{"wrench", "allen key", "mallet"} {
		_, err := svc.CreateItem(context.Background(), CreateItemInput{Name: name, Stock: 1})
		require.NoError(t, err)
	}

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "allen key", items[0].Name)
	require.Equal(t, "wrench", items[2].Name)
}
