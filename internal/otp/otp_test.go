package otp

import (
	"context"
	"errors"
	"testing"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/store/adapters/memory"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

func TestGenerate_Range(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		if code < "100000" || code > "999999" {
			t.Fatalf("code out of range: %q", code)
		}
	}
}

func TestIssue_OverwritesPreviousCode(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	rec, err := st.Signups().Create(ctx, &types.SignupRecord{
		Email:              "ana@example.com",
		VerificationStatus: types.VerificationNotVerified,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	svc := New(st.Signups())
	first, err := svc.Issue(ctx, rec)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ok, err := svc.Verify(ctx, "ana@example.com", first)
	if err != nil || !ok {
		t.Fatalf("expected first code valid, ok=%v err=%v", ok, err)
	}

	// Re-emitir hasta obtener un código distinto (colisión posible).
	second := first
	for attempts := 0; second == first && attempts < 10; attempts++ {
		second, err = svc.Issue(ctx, rec)
		if err != nil {
			t.Fatalf("reissue: %v", err)
		}
	}
	if second == first {
		t.Skip("generated identical codes 10 times in a row")
	}

	ok, err = svc.Verify(ctx, "ana@example.com", first)
	if err != nil {
		t.Fatalf("verify old: %v", err)
	}
	if ok {
		t.Fatal("old code should be invalid after reissue")
	}

	ok, err = svc.Verify(ctx, "ana@example.com", second)
	if err != nil || !ok {
		t.Fatalf("expected new code valid, ok=%v err=%v", ok, err)
	}
}

func TestVerify_NoMatchVsStoreFailure(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := New(st.Signups())

	// Sin record: no match, sin error.
	ok, err := svc.Verify(ctx, "nobody@example.com", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("expected no match")
	}

	// Fallo de store: el error se propaga, nunca se reporta como mismatch.
	st.FailNext(1)
	_, err = svc.Verify(ctx, "nobody@example.com", "123456")
	if !errors.Is(err, core.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestVerify_EmptyCodeNeverMatches(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	if _, err := st.Signups().Create(ctx, &types.SignupRecord{Email: "ana@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	svc := New(st.Signups())
	ok, err := svc.Verify(ctx, "ana@example.com", "")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("record without issued code must not match empty string")
	}
}
