package borrowers

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

	dsn := "file:borrowers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ddl := `CREATE TABLE borrowers (
  id TEXT PRIMARY KEY,
  national_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  course TEXT NOT NULL DEFAULT 'none',
  email TEXT,
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

func TestRegisterDefaultsCourse(t *testing.T) {
	svc := newTestService(t)

	borrower, err := svc.Register(context.Background(), RegisterInput{
		NationalID: " 1002003001 ",
		Name:       " Ana Reyes ",
		Phone:      " 555-0101 ",
	})
	require.NoError(t, err)
	require.Equal(t, "1002003001", borrower.NationalID)
	require.Equal(t, "Ana Reyes", borrower.Name)
	require.Equal(t, "555-0101", borrower.Phone)
	require.Equal(t, DefaultCourse, borrower.Course)
	require.Nil(t, borrower.Email)
}

func TestRegisterKeepsProvidedCourseAndEmail(t *testing.T) {
	svc := newTestService(t)

	email := "ana@example.edu"
	borrower, err := svc.Register(context.Background(), RegisterInput{
		NationalID: "1002003002",
		Name:       "Ana Reyes",
		Course:     "welding",
		Email:      &email,
	})
	require.NoError(t, err)
	require.Equal(t, "welding", borrower.Course)
	require.NotNil(t, borrower.Email)
	require.Equal(t, email, *borrower.Email)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Ana"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Register(context.Background(), RegisterInput{NationalID: "1002003003", Name: "  "})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestRegisterDuplicateNationalIDConflicts(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{NationalID: "1002003004", Name: "Ana"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{NationalID: "1002003004", Name: "Ben"})
	require.Error(t, err)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
}

func TestGetUnknownBorrowerIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestListOrderedByName(t *testing.T) {
	svc := newTestService(t)

	for _, name := range []string{"Zoe", "Ana", "Mia"} {
		_, err := svc.Register(context.Background(), RegisterInput{
			NationalID: uuid.NewString(),
			Name:       name,
		})
		require.NoError(t, err)
	}

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "Ana", list[0].Name)
	require.Equal(t, "Zoe", list[2].Name)
}
