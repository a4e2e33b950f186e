package signup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AbinJoseph007/new-member-api/internal/directory"
	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/otp"
	"github.com/AbinJoseph007/new-member-api/internal/provider"
	"github.com/AbinJoseph007/new-member-api/internal/store/adapters/memory"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

// fakeProvider simula el identity provider en memoria.
type fakeProvider struct {
	mu       sync.Mutex
	profiles map[string]*provider.RemoteProfile // por email
	fields   map[string]map[string]any          // por id
	nextID   int

	failCreates int // fuerza ErrUnavailable en las próximas N llamadas
	creates     int
	updates     int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		profiles: make(map[string]*provider.RemoteProfile),
		fields:   make(map[string]map[string]any),
	}
}

func (f *fakeProvider) FindByEmail(ctx context.Context, email string) (*provider.RemoteProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[email]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, provider.ErrNotFound
}

func (f *fakeProvider) CreateOrUpdate(ctx context.Context, p provider.Profile) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreates > 0 {
		f.failCreates--
		return "", false, provider.ErrUnavailable
	}
	if existing, ok := f.profiles[p.Email]; ok {
		f.updates++
		return existing.ID, false, nil
	}
	f.nextID++
	id := fmt.Sprintf("prof-%d", f.nextID)
	f.profiles[p.Email] = &provider.RemoteProfile{ID: id, Email: p.Email}
	f.creates++
	return id, true, nil
}

func (f *fakeProvider) UpdateCustomFields(ctx context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreates > 0 {
		f.failCreates--
		return provider.ErrUnavailable
	}
	m, ok := f.fields[id]
	if !ok {
		m = make(map[string]any)
		f.fields[id] = m
	}
	for k, v := range fields {
		m[k] = v
	}
	f.updates++
	return nil
}

// captureSender guarda los emails enviados.
type captureSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (c *captureSender) Send(to, subject, textBody, htmlBody string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("smtp: connection refused")
	}
	c.sent = append(c.sent, sentMail{To: to, Subject: subject, Body: textBody})
	return nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fixture struct {
	store    *memory.Store
	provider *fakeProvider
	sender   *captureSender
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	st.SeedDirectory(
		types.DirectoryEntry{CompanyID: "C-100", MemberType: "corporate"},
		types.DirectoryEntry{CompanyID: "C-200", MemberType: "corporate"},
		types.DirectoryEntry{CompanyID: "C-200", MemberType: "individual"},
	)
	prov := newFakeProvider()
	sender := &captureSender{}
	svc := New(Deps{
		Signups:   st.Signups(),
		Profiles:  st.MemberProfiles(),
		Directory: directory.New(st.Directory(), nil),
		OTP:       otp.New(st.Signups()),
		Provider:  prov,
		Sender:    sender,
	})
	return &fixture{store: st, provider: prov, sender: sender, svc: svc}
}

func (f *fixture) record(t *testing.T, email string) *types.SignupRecord {
	t.Helper()
	rec, err := f.store.Signups().GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return rec
}

// start + checkOtp + complete, el camino feliz completo.
func TestSignupFlow_HappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.StartSignup(ctx, StartSignupInput{
		Email:               "ana@example.com",
		FirstName:           "Ana",
		LastName:            "García",
		MembershipCompanyID: "C-100",
	})
	require.NoError(t, err)
	require.Equal(t, "corporate", res.MemberType)
	require.Len(t, res.Code, 6)
	require.Equal(t, 1, f.sender.count())

	rec := f.record(t, "ana@example.com")
	require.Equal(t, types.VerificationNotVerified, rec.VerificationStatus)
	require.Equal(t, res.Code, rec.VerificationCode)
	require.Empty(t, rec.ProviderProfileID)

	memberType, err := f.svc.CheckOTP(ctx, "ana@example.com", res.Code)
	require.NoError(t, err)
	require.Equal(t, "corporate", memberType)

	// CheckOTP no muta: el record sigue NotVerified.
	rec = f.record(t, "ana@example.com")
	require.Equal(t, types.VerificationNotVerified, rec.VerificationStatus)

	profileID, err := f.svc.CompleteSignup(ctx, CompleteSignupInput{
		Email:           "ana@example.com",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
		MemberType:      memberType,
	})
	require.NoError(t, err)
	require.NotEmpty(t, profileID)

	rec = f.record(t, "ana@example.com")
	require.Equal(t, types.VerificationVerified, rec.VerificationStatus)
	require.Equal(t, profileID, rec.ProviderProfileID)
	require.Equal(t, types.SyncConverged, rec.SyncStatus)
	require.Empty(t, rec.Password, "password must be cleared after provider accepted the creation")

	prof, err := f.store.MemberProfiles().GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, profileID, prof.ProviderProfileID)
	require.Equal(t, "corporate", prof.MemberType)
}

func TestStartSignup_InvalidCompanyID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StartSignup(context.Background(), StartSignupInput{
		Email:               "ana@example.com",
		MembershipCompanyID: "C-404",
	})
	require.ErrorIs(t, err, ErrInvalidCompanyID)
	// Nada persistido.
	require.Empty(t, f.store.Emails())
}

func TestStartSignup_ReissueInvalidatesOldCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res1, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com", FirstName: "Ana"})
	require.NoError(t, err)

	res2, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com", FirstName: "Anna"})
	require.NoError(t, err)

	// Sigue habiendo un solo record, con los campos del último submit.
	require.Equal(t, []string{"ana@example.com"}, f.store.Emails())
	require.Equal(t, "Anna", f.record(t, "ana@example.com").FirstName)

	if res1.Code != res2.Code {
		_, err = f.svc.CheckOTP(ctx, "ana@example.com", res1.Code)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err = f.svc.CheckOTP(ctx, "ana@example.com", res2.Code)
	require.NoError(t, err)
}

func TestStartSignup_VerifiedEmailRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.NoError(t, err)
	_, err = f.svc.CompleteSignup(ctx, CompleteSignupInput{
		Email: "ana@example.com", Password: "s3cret-pass", ConfirmPassword: "s3cret-pass",
	})
	require.NoError(t, err)
	_ = res

	before := f.record(t, "ana@example.com")
	_, err = f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com", FirstName: "Otro"})
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	// Sin mutaciones sobre el record verificado.
	after := f.record(t, "ana@example.com")
	require.Equal(t, before.FirstName, after.FirstName)
	require.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestStartSignup_EmailFailureKeepsRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.sender.fail = true

	res, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.ErrorIs(t, err, ErrOTPEmailFailed)
	require.NotNil(t, res, "state is persisted even when the email fails")

	// El record quedó con el código emitido; un resend lo destraba.
	rec := f.record(t, "ana@example.com")
	require.Equal(t, res.Code, rec.VerificationCode)

	f.sender.fail = false
	require.NoError(t, f.svc.ResendOTP(ctx, "ana@example.com"))
	require.Equal(t, 1, f.sender.count())
}

func TestCheckOTP_WrongCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.NoError(t, err)

	wrong := "000000"
	if wrong == res.Code {
		wrong = "000001"
	}
	_, err = f.svc.CheckOTP(ctx, "ana@example.com", wrong)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCompleteSignup_PasswordMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.NoError(t, err)

	// Diferencia de whitespace también es mismatch (comparación exacta).
	_, err = f.svc.CompleteSignup(ctx, CompleteSignupInput{
		Email:           "ana@example.com",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass ",
	})
	require.ErrorIs(t, err, ErrPasswordMismatch)
	require.Equal(t, 0, f.provider.creates)
}

func TestCompleteSignup_ProviderDownLeavesPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.NoError(t, err)

	f.provider.failCreates = 1
	_, err = f.svc.CompleteSignup(ctx, CompleteSignupInput{
		Email: "ana@example.com", Password: "s3cret-pass", ConfirmPassword: "s3cret-pass",
	})
	require.ErrorIs(t, err, provider.ErrUnavailable)

	// El record quedó recuperable: password persistida y sync pending.
	rec := f.record(t, "ana@example.com")
	require.Equal(t, "s3cret-pass", rec.Password)
	require.Equal(t, types.SyncPending, rec.SyncStatus)
	require.Empty(t, rec.ProviderProfileID)
}

func TestCompleteSignup_ExistingProfileLinksExistingID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// El email ya tiene perfil en el provider (alta previa por otro canal).
	f.provider.profiles["ana@example.com"] = &provider.RemoteProfile{ID: "prof-keep", Email: "ana@example.com"}

	_, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.NoError(t, err)

	id, err := f.svc.CompleteSignup(ctx, CompleteSignupInput{
		Email: "ana@example.com", Password: "s3cret-pass", ConfirmPassword: "s3cret-pass",
	})
	require.NoError(t, err)
	require.Equal(t, "prof-keep", id)
	require.Equal(t, 0, f.provider.creates)
}

func TestUpdateCompanyID_RequiresLinkedProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.NoError(t, err)

	_, err = f.svc.UpdateCompanyID(ctx, "ana@example.com", "C-100")
	require.ErrorIs(t, err, ErrProviderProfileMissing)
}

func TestUpdateCompanyID_PushesAndClearsDirty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.NoError(t, err)
	profileID, err := f.svc.CompleteSignup(ctx, CompleteSignupInput{
		Email: "ana@example.com", Password: "s3cret-pass", ConfirmPassword: "s3cret-pass",
	})
	require.NoError(t, err)

	memberType, err := f.svc.UpdateCompanyID(ctx, "ana@example.com", "C-100")
	require.NoError(t, err)
	require.Equal(t, "corporate", memberType)

	rec := f.record(t, "ana@example.com")
	require.Equal(t, "C-100", rec.MembershipCompanyID)
	require.False(t, rec.MembershipDirty)
	require.Equal(t, "C-100", f.provider.fields[profileID]["companyId"])
	require.Equal(t, "corporate", f.provider.fields[profileID]["memberType"])

	// Idempotencia: repetir produce el mismo estado final.
	again, err := f.svc.UpdateCompanyID(ctx, "ana@example.com", "C-100")
	require.NoError(t, err)
	require.Equal(t, memberType, again)
	require.False(t, f.record(t, "ana@example.com").MembershipDirty)
}

func TestUpdateCompanyID_ProviderDownLeavesDirty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.NoError(t, err)
	_, err = f.svc.CompleteSignup(ctx, CompleteSignupInput{
		Email: "ana@example.com", Password: "s3cret-pass", ConfirmPassword: "s3cret-pass",
	})
	require.NoError(t, err)

	f.provider.failCreates = 1
	_, err = f.svc.UpdateCompanyID(ctx, "ana@example.com", "C-100")
	require.ErrorIs(t, err, provider.ErrUnavailable)

	// Estado persistido y marcado dirty para el sweep de membresía.
	rec := f.record(t, "ana@example.com")
	require.Equal(t, "C-100", rec.MembershipCompanyID)
	require.True(t, rec.MembershipDirty)
}

func TestResendOTP_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	err := f.svc.ResendOTP(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFailurePropagatesAsUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.store.FailNext(1)
	_, err := f.svc.StartSignup(ctx, StartSignupInput{Email: "ana@example.com"})
	require.ErrorIs(t, err, core.ErrUnavailable)
}
