package httpserver

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/task-manager/internal/model"
)

func TestWithUser_And_UserFromCtx(t *testing.T) {
	t.Parallel()

	if u, ok := UserFromCtx(context.Background()); ok || u != nil {
		t.Fatalf("expected no user in empty ctx")
	}

	want := &model.User{ID: uuid.Must(uuid.NewV4()), Username: "alice"}
	ctx := WithUser(context.Background(), want)

	got, ok := UserFromCtx(ctx)
	if !ok {
		t.Fatalf("expected user in ctx")
	}
	if got.ID != want.ID {
		t.Fatalf("mismatch: got %s, want %s", got.ID, want.ID)
	}

	bad := context.WithValue(context.Background(), userKey, "not-a-user")
	if u, ok := UserFromCtx(bad); ok || u != nil {
		t.Fatalf("expected miss on wrong typed value")
	}

	var nilUser *model.User
	if _, ok := UserFromCtx(WithUser(context.Background(), nilUser)); ok {
		t.Fatalf("expected miss on nil user")
	}
}
