package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"preflight/internal/models"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeDB struct {
	execTag  pgconn.CommandTag
	execErr  error
	execSQL  string
	execArgs []any
	queryErr error
	row      fakeRow
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, f.queryErr
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.row
}

func TestCreateSetsCreatedAt(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	db := &fakeDB{row: fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*time.Time)) = now
		return nil
	}}}

	s := &models.SceneExport{ID: "scn_1", Name: "shot010"}
	if err := NewSceneRepository(db).Create(context.Background(), s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !s.CreatedAt.Equal(now) {
		t.Errorf("expected created_at %v, got %v", now, s.CreatedAt)
	}
}

func TestCreateDuplicate(t *testing.T) {
	db := &fakeDB{row: fakeRow{scan: func(dest ...any) error {
		return &pgconn.PgError{Code: "23505"}
	}}}

	err := NewSceneRepository(db).Create(context.Background(), &models.SceneExport{ID: "scn_1"})
	if !errors.Is(err, ErrSceneExists) {
		t.Errorf("expected ErrSceneExists, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, ErrSceneNotFound},
		{"no table", &pgconn.PgError{Code: "42P01"}, ErrSceneNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{row: fakeRow{scan: func(dest ...any) error { return tt.err }}}
			_, err := NewSceneRepository(db).Get(context.Background(), "scn_x")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	boom := errors.New("connection reset")
	db := &fakeDB{row: fakeRow{scan: func(dest ...any) error { return boom }}}
	if _, err := NewSceneRepository(db).Get(context.Background(), "scn_x"); !errors.Is(err, boom) {
		t.Errorf("expected driver error to pass through, got %v", err)
	}
}

func TestListMissingTable(t *testing.T) {
	db := &fakeDB{queryErr: &pgconn.PgError{Code: "42P01"}}
	out, err := NewSceneRepository(db).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", out)
	}
}

func TestDelete(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewSceneRepository(db)

	if err := repo.Delete(context.Background(), "scn_1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(db.execArgs) != 1 || db.execArgs[0] != "scn_1" {
		t.Errorf("expected id argument, got %v", db.execArgs)
	}

	db.execTag = pgconn.NewCommandTag("UPDATE 0")
	if err := repo.Delete(context.Background(), "scn_1"); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("expected ErrSceneNotFound, got %v", err)
	}
}
