package lending

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/toolcrib/toolcrib-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:lending_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	// Postgres owns the real DDL (pkg/migrate/migrations); tests mirror it in
	// sqlite dialect because the models carry postgres-only column defaults.
	ddl := []string{
		`CREATE TABLE items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  location TEXT NOT NULL DEFAULT '',
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE borrowers (
  id TEXT PRIMARY KEY,
  national_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  course TEXT NOT NULL DEFAULT 'none',
  email TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE loan_records (
  id TEXT PRIMARY KEY,
  borrower_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  borrowed_at DATETIME NOT NULL,
  due_at DATETIME NOT NULL,
  returned_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE active_loans (
  borrower_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  updated_at DATETIME,
  PRIMARY KEY (borrower_id, item_id)
);`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func seedItem(t *testing.T, db *gorm.DB, name string, stock int) *models.Item {
	t.Helper()
	item := &models.Item{
		ID:       uuid.New(),
		Name:     name,
		Location: "shelf A",
		Stock:    stock,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func seedBorrower(t *testing.T, db *gorm.DB, name string) *models.Borrower {
	t.Helper()
	borrower := &models.Borrower{
		ID:         uuid.New(),
		NationalID: uuid.NewString(),
		Name:       name,
		Course:     "none",
	}
	if err := db.Create(borrower).Error; err != nil {
		t.Fatalf("seed borrower: %v", err)
	}
	return borrower
}

// stepClock hands out strictly increasing instants so borrow order is
// deterministic in FIFO tests.
type stepClock struct {
	next time.Time
}

func newStepClock(start time.Time) *stepClock {
	return &stepClock{next: start.UTC()}
}

func (c *stepClock) Now() time.Time {
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}
