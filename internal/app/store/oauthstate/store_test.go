package oauthstate_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mwholloway/salescope/internal/app/store/oauthstate"
	"github.com/mwholloway/salescope/internal/testutil"
)

func TestSaveAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := oauthstate.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	state := uuid.NewString()
	if err := store.Save(ctx, state, "/profile", 10*time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	ret, err := store.Consume(ctx, state)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if ret != "/profile" {
		t.Errorf("return url: got %q", ret)
	}

	// A state authorizes exactly one callback.
	if _, err := store.Consume(ctx, state); err != oauthstate.ErrNotFound {
		t.Errorf("second consume: got %v, want ErrNotFound", err)
	}
}

func TestConsume_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := oauthstate.New(db)
	state := uuid.NewString()
	if err := store.Save(ctx, state, "/", -time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Consume(ctx, state); err != oauthstate.ErrNotFound {
		t.Errorf("got %v, want ErrNotFound for expired state", err)
	}
}
