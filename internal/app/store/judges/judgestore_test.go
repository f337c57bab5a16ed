package judgestore

import (
	"testing"

	"github.com/coderhub/coderhub/internal/testutil"
)

func TestEnsureByName_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := New(db)
	for i := 0; i < 3; i++ {
		if err := store.EnsureByName(ctx, "Codeforces", "https://codeforces.com/"); err != nil {
			t.Fatalf("EnsureByName failed: %v", err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list length: got %d, want 1", len(list))
	}
	if list[0].Name != "Codeforces" || list[0].URL != "https://codeforces.com/" {
		t.Errorf("unexpected judge: %+v", list[0])
	}
}
