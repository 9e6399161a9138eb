package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/paulbrigner/xmonitor/domain/query"
	"github.com/paulbrigner/xmonitor/internal/database"
	"github.com/paulbrigner/xmonitor/internal/testdb"
)

type noteModel struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

func (noteModel) TableName() string { return "notes" }

type note struct {
	ID   int64
	Name string
}

type noteMapper struct{}

func (noteMapper) ToDomain(m noteModel) note { return note{ID: m.ID, Name: m.Name} }
func (noteMapper) ToModel(d note) noteModel  { return noteModel{ID: d.ID, Name: d.Name} }

func newNotesDB(t *testing.T) database.Database {
	t.Helper()
	db := testdb.WithSchema(t, "CREATE TABLE notes (id INTEGER PRIMARY KEY, name TEXT NOT NULL)")
	session := db.Session(context.Background())
	require.NoError(t, session.Exec(
		"INSERT INTO notes (id, name) VALUES (1, 'alpha'), (2, 'beta'), (3, 'beta')").Error)
	return db
}

func TestNewDatabase_UnsupportedScheme(t *testing.T) {
	_, err := database.NewDatabase(context.Background(), "mysql://root@localhost/db")
	assert.ErrorIs(t, err, database.ErrUnsupportedDriver)
}

func TestNewDatabase_SQLiteInMemory(t *testing.T) {
	db, err := database.NewDatabase(context.Background(), "sqlite:///:memory:")
	require.NoError(t, err)
	defer db.Close()
	assert.True(t, db.IsSQLite())
	assert.False(t, db.IsPostgres())
}

func TestRepository_FindAndCount(t *testing.T) {
	ctx := context.Background()
	repo := database.NewRepository[note, noteModel](newNotesDB(t), noteMapper{}, "note")

	all, err := repo.Find(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	betas, err := repo.Find(ctx, query.WithCondition("name", "beta"))
	require.NoError(t, err)
	assert.Len(t, betas, 2)

	count, err := repo.Count(ctx, query.WithCondition("name", "beta"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	exists, err := repo.Exists(ctx, query.WithCondition("name", "alpha"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_FindOne(t *testing.T) {
	ctx := context.Background()
	repo := database.NewRepository[note, noteModel](newNotesDB(t), noteMapper{}, "note")

	got, err := repo.FindOne(ctx, query.WithCondition("id", 1))
	require.NoError(t, err)
	assert.Equal(t, note{ID: 1, Name: "alpha"}, got)

	_, err = repo.FindOne(ctx, query.WithCondition("id", 99))
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_DeleteBy(t *testing.T) {
	ctx := context.Background()
	repo := database.NewRepository[note, noteModel](newNotesDB(t), noteMapper{}, "note")

	deleted, err := repo.DeleteBy(ctx, query.WithCondition("name", "beta"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := newNotesDB(t)
	repo := database.NewRepository[note, noteModel](db, noteMapper{}, "note")

	boom := errors.New("boom")
	err := database.WithTransaction(ctx, db, func(tx *gorm.DB) error {
		if res := tx.Exec("DELETE FROM notes"); res.Error != nil {
			return res.Error
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count, "failed transaction leaves rows untouched")
}

func TestWithTransaction_Commits(t *testing.T) {
	ctx := context.Background()
	db := newNotesDB(t)
	repo := database.NewRepository[note, noteModel](db, noteMapper{}, "note")

	err := database.WithTransaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Exec("DELETE FROM notes WHERE name = 'beta'").Error
	})
	require.NoError(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
