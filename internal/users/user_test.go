package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/users"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
)

type fakeRepo struct {
	upserted map[validate.Identity]time.Time
	touched  map[validate.Identity]time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{upserted: make(map[validate.Identity]time.Time), touched: make(map[validate.Identity]time.Time)}
}

func (f *fakeRepo) Upsert(ctx context.Context, identity validate.Identity, now time.Time) error {
	f.upserted[identity] = now
	return nil
}

func (f *fakeRepo) Touch(ctx context.Context, identity validate.Identity, now time.Time) error {
	f.touched[identity] = now
	return nil
}

func TestSignedInUpsertsUser(t *testing.T) {
	repo := newFakeRepo()
	svc := users.New(repo)
	id := validate.Identity{1}
	now := time.Now()

	if err := svc.SignedIn(context.Background(), id, now); err != nil {
		t.Fatalf("SignedIn: %v", err)
	}
	if got, ok := repo.upserted[id]; !ok || !got.Equal(now) {
		t.Fatalf("expected upsert at %v, got %v (ok=%v)", now, got, ok)
	}
}

func TestSignedOutTouchesUser(t *testing.T) {
	repo := newFakeRepo()
	svc := users.New(repo)
	id := validate.Identity{2}
	now := time.Now()

	if err := svc.SignedOut(context.Background(), id, now); err != nil {
		t.Fatalf("SignedOut: %v", err)
	}
	if got, ok := repo.touched[id]; !ok || !got.Equal(now) {
		t.Fatalf("expected touch at %v, got %v (ok=%v)", now, got, ok)
	}
}
