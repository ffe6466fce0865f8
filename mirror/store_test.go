package mirror

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

// fakeDB records statements and plays back canned results. Embedding
// the pgx interfaces keeps the fake small; calling an unstubbed method
// panics, which is exactly what a test should do.
type fakeDB struct {
	execs    []execCall
	execTags []pgconn.CommandTag
	execErrs []error

	queryRows *fakeRows
	queryErr  error

	beginErr error
	tx       *fakeTx
}

func (f *fakeDB) nextExec(sql string, args []any) (pgconn.CommandTag, error) {
	i := len(f.execs)
	f.execs = append(f.execs, execCall{sql: sql, args: args})

	var tag pgconn.CommandTag
	if i < len(f.execTags) {
		tag = f.execTags[i]
	}
	var err error
	if i < len(f.execErrs) {
		err = f.execErrs[i]
	}
	return tag, err
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return f.nextExec(sql, args)
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.queryRows, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	panic("QueryRow not stubbed")
}

func (f *fakeDB) Begin(_ context.Context) (pgx.Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	if f.tx == nil {
		f.tx = &fakeTx{db: f}
	}
	return f.tx, nil
}

type fakeTx struct {
	pgx.Tx
	db         *fakeDB
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.nextExec(sql, args)
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeRows struct {
	pgx.Rows
	sessions []Session
	idx      int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	return r.idx < len(r.sessions)
}

func (r *fakeRows) Scan(dest ...any) error {
	sess := r.sessions[r.idx]
	r.idx++

	*(dest[0].(*string)) = sess.JTI
	*(dest[1].(*string)) = sess.UserID
	*(dest[2].(*time.Time)) = sess.IssuedAt
	*(dest[3].(*time.Time)) = sess.ExpiresAt
	*(dest[4].(**time.Time)) = sess.RevokedAt
	*(dest[5].(**string)) = sess.RotatedFromJTI
	return nil
}

func tag(s string) pgconn.CommandTag {
	return pgconn.NewCommandTag(s)
}

func TestRecordInsertsLineageRoot(t *testing.T) {
	db := &fakeDB{execTags: []pgconn.CommandTag{tag("INSERT 0 1")}}
	store := NewStoreWithDB(db)

	issued := time.Now()
	expires := issued.Add(time.Hour)
	if err := store.Record(context.Background(), "jti-1", "user-1", issued, expires); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if len(db.execs) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(db.execs))
	}
	if !strings.Contains(db.execs[0].sql, "INSERT INTO refresh_sessions") {
		t.Fatalf("unexpected statement: %s", db.execs[0].sql)
	}
	if db.execs[0].args[0] != "jti-1" || db.execs[0].args[1] != "user-1" {
		t.Fatalf("unexpected args: %v", db.execs[0].args)
	}
}

func TestRotateRetiresThenInserts(t *testing.T) {
	db := &fakeDB{execTags: []pgconn.CommandTag{tag("UPDATE 1"), tag("INSERT 0 1")}}
	store := NewStoreWithDB(db)

	err := store.Rotate(context.Background(), "old", "new", "user-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	if len(db.execs) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(db.execs))
	}
	if !strings.Contains(db.execs[0].sql, "SET revoked_at = now()") {
		t.Fatalf("first statement must retire the predecessor: %s", db.execs[0].sql)
	}
	if !strings.Contains(db.execs[1].sql, "rotated_from_jti") {
		t.Fatalf("second statement must link the successor: %s", db.execs[1].sql)
	}
	if !db.tx.committed {
		t.Fatal("rotation must commit")
	}
}

func TestRotateBrokenLineageRollsBack(t *testing.T) {
	// The UPDATE claims zero rows: predecessor missing, already revoked,
	// or owned by another user.
	db := &fakeDB{execTags: []pgconn.CommandTag{tag("UPDATE 0")}}
	store := NewStoreWithDB(db)

	err := store.Rotate(context.Background(), "old", "new", "user-1", time.Now().Add(time.Hour))
	if !errors.Is(err, ErrLineageBroken) {
		t.Fatalf("expected ErrLineageBroken, got %v", err)
	}

	if len(db.execs) != 1 {
		t.Fatalf("successor must not be inserted on a broken chain, got %d statements", len(db.execs))
	}
	if db.tx.committed {
		t.Fatal("broken rotation must not commit")
	}
	if !db.tx.rolledBack {
		t.Fatal("broken rotation must roll back")
	}
}

func TestRotateInsertFailureRollsBack(t *testing.T) {
	db := &fakeDB{
		execTags: []pgconn.CommandTag{tag("UPDATE 1"), {}},
		execErrs: []error{nil, errors.New("unique violation")},
	}
	store := NewStoreWithDB(db)

	err := store.Rotate(context.Background(), "old", "new", "user-1", time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected insert failure to surface")
	}
	if db.tx.committed {
		t.Fatal("failed rotation must not commit")
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	db := &fakeDB{execTags: []pgconn.CommandTag{tag("UPDATE 0")}}
	store := NewStoreWithDB(db)

	// Zero rows touched is still success; the row is gone or already
	// revoked either way.
	if err := store.Revoke(context.Background(), "ghost"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
}

func TestRevokeAllByUserReturnsCount(t *testing.T) {
	db := &fakeDB{execTags: []pgconn.CommandTag{tag("UPDATE 3")}}
	store := NewStoreWithDB(db)

	n, err := store.RevokeAllByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("RevokeAllByUser failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 revoked rows, got %d", n)
	}
}

func TestCleanupExpiredReturnsCount(t *testing.T) {
	db := &fakeDB{execTags: []pgconn.CommandTag{tag("DELETE 5")}}
	store := NewStoreWithDB(db)

	n, err := store.CleanupExpired(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 deleted rows, got %d", n)
	}
}

func TestLineageReturnsOldestFirst(t *testing.T) {
	rootFrom := (*string)(nil)
	midFrom := "root"
	headFrom := "mid"
	revoked := time.Now().Add(-time.Minute)

	// The recursive query walks head to root; Lineage flips the order.
	db := &fakeDB{queryRows: &fakeRows{sessions: []Session{
		{JTI: "head", UserID: "user-1", RotatedFromJTI: &headFrom},
		{JTI: "mid", UserID: "user-1", RevokedAt: &revoked, RotatedFromJTI: &midFrom},
		{JTI: "root", UserID: "user-1", RevokedAt: &revoked, RotatedFromJTI: rootFrom},
	}}}
	store := NewStoreWithDB(db)

	chain, err := store.Lineage(context.Background(), "head")
	if err != nil {
		t.Fatalf("Lineage failed: %v", err)
	}
	if len(chain) != 3 {
		t.Fatalf("expected 3 links, got %d", len(chain))
	}
	if chain[0].JTI != "root" || chain[2].JTI != "head" {
		t.Fatalf("chain not oldest-first: %q .. %q", chain[0].JTI, chain[2].JTI)
	}
	if chain[0].RotatedFromJTI != nil {
		t.Fatal("root link must have no predecessor")
	}
	if chain[2].RevokedAt != nil {
		t.Fatal("head link must still be live")
	}
}
