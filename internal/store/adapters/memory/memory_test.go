package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

func TestSignups_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := New()

	rec, err := st.Signups().Create(ctx, &types.SignupRecord{
		Email:              "ana@example.com",
		FirstName:          "Ana",
		VerificationStatus: types.VerificationNotVerified,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("store must assign id and timestamps: %+v", rec)
	}

	got, err := st.Signups().GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FirstName != "Ana" {
		t.Fatalf("firstName = %q", got.FirstName)
	}

	if _, err := st.Signups().GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSignups_DuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	st := New()

	if _, err := st.Signups().Create(ctx, &types.SignupRecord{Email: "ana@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := st.Signups().Create(ctx, &types.SignupRecord{Email: "ana@example.com"})
	if !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSignups_GetByEmailAndCode(t *testing.T) {
	ctx := context.Background()
	st := New()

	rec, err := st.Signups().Create(ctx, &types.SignupRecord{Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.Signups().Update(ctx, rec.ID, core.Fields{core.FieldVerificationCode: "123456"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := st.Signups().GetByEmailAndCode(ctx, "ana@example.com", "123456"); err != nil {
		t.Fatalf("match expected: %v", err)
	}
	if _, err := st.Signups().GetByEmailAndCode(ctx, "ana@example.com", "654321"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("wrong code must not match, got %v", err)
	}
	if _, err := st.Signups().GetByEmailAndCode(ctx, "otra@example.com", "123456"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("wrong email must not match, got %v", err)
	}
}

func TestSignups_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	st := New()

	rec, err := st.Signups().Create(ctx, &types.SignupRecord{
		Email:     "ana@example.com",
		FirstName: "Ana",
		LastName:  "García",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := st.Signups().Update(ctx, rec.ID, core.Fields{
		core.FieldSyncStatus:        types.SyncConverged,
		core.FieldProviderProfileID: "prof-1",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	// Solo los campos del update cambian.
	if got.FirstName != "Ana" || got.LastName != "García" {
		t.Fatalf("unrelated fields mutated: %+v", got)
	}
	if got.SyncStatus != types.SyncConverged || got.ProviderProfileID != "prof-1" {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.UpdatedAt.Before(rec.UpdatedAt) {
		t.Fatalf("updatedAt went backwards: %v < %v", got.UpdatedAt, rec.UpdatedAt)
	}

	if _, err := st.Signups().Update(ctx, "ghost", core.Fields{core.FieldFirstName: "X"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_StableInsertionOrder(t *testing.T) {
	ctx := context.Background()
	st := New()

	for _, e := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		if _, err := st.Signups().Create(ctx, &types.SignupRecord{Email: e}); err != nil {
			t.Fatalf("create %s: %v", e, err)
		}
	}
	recs, err := st.Signups().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"c@example.com", "a@example.com", "b@example.com"}
	for i, w := range want {
		if recs[i].Email != w {
			t.Fatalf("order[%d] = %q, want %q", i, recs[i].Email, w)
		}
	}
}

func TestDirectory_ListByCompanyID(t *testing.T) {
	ctx := context.Background()
	st := New()
	st.SeedDirectory(
		types.DirectoryEntry{CompanyID: "C-1", MemberType: "corporate"},
		types.DirectoryEntry{CompanyID: "C-2", MemberType: "individual"},
		types.DirectoryEntry{CompanyID: "C-1", MemberType: "individual"},
	)

	entries, err := st.Directory().ListByCompanyID(ctx, "C-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d", len(entries))
	}
	// Orden de scan estable: el orden de seed se preserva.
	if entries[0].MemberType != "corporate" || entries[1].MemberType != "individual" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	empty, err := st.Directory().ListByCompanyID(ctx, "C-404")
	if err != nil || len(empty) != 0 {
		t.Fatalf("unknown id must return empty slice, got %v %v", empty, err)
	}
}

func TestProfiles_Upsert(t *testing.T) {
	ctx := context.Background()
	st := New()

	p := &types.MemberProfile{Email: "ana@example.com", MemberType: "corporate"}
	if err := st.MemberProfiles().Upsert(ctx, p); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	p.MemberType = "individual"
	if err := st.MemberProfiles().Upsert(ctx, p); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, err := st.MemberProfiles().GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.MemberType != "individual" {
		t.Fatalf("memberType = %q", got.MemberType)
	}
}

func TestFailNext(t *testing.T) {
	ctx := context.Background()
	st := New()
	st.FailNext(2)

	if _, err := st.Signups().List(ctx); !errors.Is(err, core.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := st.Signups().GetByEmail(ctx, "x"); !errors.Is(err, core.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	// Agotado el contador, vuelve a funcionar.
	if _, err := st.Signups().List(ctx); err != nil {
		t.Fatalf("expected success after failures, got %v", err)
	}
}
