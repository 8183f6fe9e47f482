package application_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/tempo/internal/shared/application"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/tempo/internal/shared/infrastructure/database/sqlite"
)

// recordingUnitOfWork tracks the calls WithUnitOfWork makes.
type recordingUnitOfWork struct {
	beginErr, commitErr, rollbackErr error
	calls                            []string
}

type txKey struct{}

func (u *recordingUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.calls = append(u.calls, "begin")
	if u.beginErr != nil {
		return nil, u.beginErr
	}
	return context.WithValue(ctx, txKey{}, true), nil
}

func (u *recordingUnitOfWork) Commit(ctx context.Context) error {
	u.calls = append(u.calls, "commit")
	return u.commitErr
}

func (u *recordingUnitOfWork) Rollback(ctx context.Context) error {
	u.calls = append(u.calls, "rollback")
	return u.rollbackErr
}

func TestWithUnitOfWork_Calls(t *testing.T) {
	errSave := errors.New("save task: version mismatch")

	tests := []struct {
		name    string
		uow     *recordingUnitOfWork
		fnErr   error
		wantErr error
		calls   []string
	}{
		{"commits on success", &recordingUnitOfWork{}, nil, nil, []string{"begin", "commit"}},
		{"rolls back when the work fails", &recordingUnitOfWork{}, errSave, errSave, []string{"begin", "rollback"}},
		{"work error wins over rollback error", &recordingUnitOfWork{rollbackErr: errors.New("tx done")}, errSave, errSave, []string{"begin", "rollback"}},
		{"begin failure skips the work", &recordingUnitOfWork{beginErr: errors.New("pool closed")}, nil, errors.New("pool closed"), []string{"begin"}},
		{"commit failure is returned", &recordingUnitOfWork{commitErr: errors.New("disk full")}, nil, errors.New("disk full"), []string{"begin", "commit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false

			err := application.WithUnitOfWork(context.Background(), tt.uow, func(ctx context.Context) error {
				ran = true
				assert.Equal(t, true, ctx.Value(txKey{}), "work runs in the transactional context")
				return tt.fnErr
			})

			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr.Error(), err.Error())
			}
			assert.Equal(t, tt.calls, tt.uow.calls)
			assert.Equal(t, tt.uow.beginErr == nil, ran)
		})
	}
}

func TestNoopUnitOfWork(t *testing.T) {
	ctx := context.WithValue(context.Background(), txKey{}, "caller")
	errSave := errors.New("save failed")

	err := application.WithUnitOfWork(ctx, application.NoopUnitOfWork{}, func(txCtx context.Context) error {
		assert.Equal(t, ctx, txCtx, "no transaction is added")
		return errSave
	})

	assert.ErrorIs(t, err, errSave)
}

func openNotes(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "tempo.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(ctx, `CREATE TABLE notes (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	return conn
}

func insertNote(ctx context.Context, conn database.Connection, id string) error {
	_, err := database.ExecutorFromContext(ctx, conn).Exec(ctx, `INSERT INTO notes (id) VALUES (?)`, id)
	return err
}

func noteIDs(t *testing.T, conn database.Connection) []string {
	t.Helper()
	rows, err := conn.Query(context.Background(), `SELECT id FROM notes ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestWithUnitOfWork_DatabaseTransaction(t *testing.T) {
	ctx := context.Background()
	conn := openNotes(t)
	uow := database.NewUnitOfWork(conn)

	require.NoError(t, application.WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
		if err := insertNote(ctx, conn, "task-row"); err != nil {
			return err
		}
		return insertNote(ctx, conn, "outbox-row")
	}))
	assert.Equal(t, []string{"outbox-row", "task-row"}, noteIDs(t, conn))

	errStage := errors.New("stage events")
	err := application.WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
		if err := insertNote(ctx, conn, "orphan-row"); err != nil {
			return err
		}
		return errStage
	})
	assert.ErrorIs(t, err, errStage)
	assert.Equal(t, []string{"outbox-row", "task-row"}, noteIDs(t, conn), "a failed unit leaves no partial write")
}

func TestWithUnitOfWork_NestedUnitJoinsOuter(t *testing.T) {
	ctx := context.Background()
	conn := openNotes(t)
	uow := database.NewUnitOfWork(conn)
	errOuter := errors.New("outer failed")

	err := application.WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
		require.NoError(t, application.WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
			return insertNote(ctx, conn, "inner")
		}))
		return errOuter
	})

	assert.ErrorIs(t, err, errOuter)
	assert.Empty(t, noteIDs(t, conn))
}
