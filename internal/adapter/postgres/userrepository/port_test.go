package userrepository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gitlab.com/codearena.net/internal/adapter/logging"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/static/errs"
)

func newMockRepo(t *testing.T) (*userRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "postgres"), logging.NewNopLogger(), "public").(*userRepo), mock
}

func TestCreateDuplicateUserName(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	hash := "hash"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO public.users (id, user_name, email, password_hash, auth_provider)")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &domain.Users{ID: uuid.New(), UserName: "alice", PasswordHash: &hash, AuthProvider: "local"})
	if !errors.Is(err, errs.UserNameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
}

func TestGetByUserName(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, user_name, email, password_hash, auth_provider FROM public.users WHERE user_name = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_name", "email", "password_hash", "auth_provider"}).
			AddRow(id.String(), "alice", nil, "hash", "local"))

	user, err := repo.GetByUserName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if user == nil || user.ID != id || user.PasswordHash == nil || *user.PasswordHash != "hash" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestGetMissingUser(t *testing.T) {
	t.Parallel()
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM public.users WHERE id = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.Get(context.Background(), uuid.NewString())
	if err != nil || user != nil {
		t.Fatalf("expected nil, nil for a missing user, got %v, %v", user, err)
	}
}
