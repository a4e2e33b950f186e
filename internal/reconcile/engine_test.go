package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AbinJoseph007/new-member-api/internal/directory"
	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/provider"
	"github.com/AbinJoseph007/new-member-api/internal/store/adapters/memory"
)

type fakeProvider struct {
	mu       sync.Mutex
	profiles map[string]string // email → id
	fields   map[string]map[string]any
	nextID   int
	failN    int

	// block, si no es nil, detiene CreateOrUpdate hasta que se cierre.
	// entered se cierra al entrar por primera vez.
	block     chan struct{}
	entered   chan struct{}
	enterOnce sync.Once
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		profiles: make(map[string]string),
		fields:   make(map[string]map[string]any),
	}
}

func (f *fakeProvider) FindByEmail(ctx context.Context, email string) (*provider.RemoteProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.profiles[email]; ok {
		return &provider.RemoteProfile{ID: id, Email: email}, nil
	}
	return nil, provider.ErrNotFound
}

func (f *fakeProvider) CreateOrUpdate(ctx context.Context, p provider.Profile) (string, bool, error) {
	if f.entered != nil {
		f.enterOnce.Do(func() { close(f.entered) })
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return "", false, provider.ErrUnavailable
	}
	if id, ok := f.profiles[p.Email]; ok {
		return id, false, nil
	}
	f.nextID++
	id := fmt.Sprintf("prof-%d", f.nextID)
	f.profiles[p.Email] = id
	return id, true, nil
}

func (f *fakeProvider) UpdateCustomFields(ctx context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
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
	return nil
}

type captureSender struct {
	mu   sync.Mutex
	sent []string // subjects
}

func (c *captureSender) Send(to, subject, textBody, htmlBody string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, subject)
	return nil
}

func (c *captureSender) accountCreatedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.sent {
		if strings.Contains(strings.ToLower(s), "account") {
			n++
		}
	}
	return n
}

func seedPending(t *testing.T, st *memory.Store, email, password, companyID string) *types.SignupRecord {
	t.Helper()
	rec, err := st.Signups().Create(context.Background(), &types.SignupRecord{
		Email:               email,
		FirstName:           "Test",
		Password:            password,
		MembershipCompanyID: companyID,
		VerificationStatus:  types.VerificationNotVerified,
		SyncStatus:          types.SyncPending,
	})
	require.NoError(t, err)
	return rec
}

func newEngine(st *memory.Store, prov provider.API, sender *captureSender) *Engine {
	return New(Deps{
		Signups:       st.Signups(),
		Profiles:      st.MemberProfiles(),
		Directory:     directory.New(st.Directory(), nil),
		Provider:      prov,
		Sender:        sender,
		RecordTimeout: 5 * time.Second,
	})
}

func TestConvergenceSweep_ConvergesPendingRecord(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	st.SeedDirectory(types.DirectoryEntry{CompanyID: "C-1", MemberType: "corporate"})
	prov := newFakeProvider()
	sender := &captureSender{}
	eng := newEngine(st, prov, sender)

	seedPending(t, st, "ana@example.com", "s3cret-pass", "C-1")

	stats, err := eng.RunConvergenceSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Scanned)
	require.Equal(t, 1, stats.Converged)
	require.Zero(t, stats.Failed)

	rec, err := st.Signups().GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, types.SyncConverged, rec.SyncStatus)
	require.NotEmpty(t, rec.ProviderProfileID)
	require.Empty(t, rec.Password)

	prof, err := st.MemberProfiles().GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, "corporate", prof.MemberType)

	// Email de cuenta creada, una sola vez.
	require.Equal(t, 1, sender.accountCreatedCount())
}

func TestConvergenceSweep_RetriesUntilProviderRecovers(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	prov := newFakeProvider()
	sender := &captureSender{}
	eng := newEngine(st, prov, sender)

	seedPending(t, st, "ana@example.com", "s3cret-pass", "")

	// Dos ticks con provider caído: el record queda pending, sin abortar.
	prov.failN = 2
	for i := 0; i < 2; i++ {
		stats, err := eng.RunConvergenceSweep(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, stats.Failed)
		rec, err := st.Signups().GetByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		require.Equal(t, types.SyncPending, rec.SyncStatus)
		require.Equal(t, "s3cret-pass", rec.Password)
	}

	// Provider recuperado: converge y el email sale una única vez.
	stats, err := eng.RunConvergenceSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Converged)
	require.Equal(t, 1, sender.accountCreatedCount())

	// Sweep posterior no re-procesa el record convergido.
	stats, err = eng.RunConvergenceSweep(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.Converged)
	require.Equal(t, 1, sender.accountCreatedCount())
}

func TestConvergenceSweep_SkipsUnusablePassword(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	prov := newFakeProvider()
	sender := &captureSender{}
	eng := newEngine(st, prov, sender)

	// Password corta tras trim: se saltea, no se erra.
	seedPending(t, st, "corta@example.com", "  abc  ", "")
	// Sin password (complete nunca llegó): también se saltea.
	seedPending(t, st, "sinpass@example.com", "", "")

	stats, err := eng.RunConvergenceSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Skipped)
	require.Zero(t, stats.Failed)
	require.Zero(t, stats.Converged)

	rec, err := st.Signups().GetByEmail(ctx, "corta@example.com")
	require.NoError(t, err)
	require.Equal(t, types.SyncPending, rec.SyncStatus)
}

func TestConvergenceSweep_LinksExistingProfileWithoutEmail(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	prov := newFakeProvider()
	prov.profiles["ana@example.com"] = "prof-existing"
	sender := &captureSender{}
	eng := newEngine(st, prov, sender)

	seedPending(t, st, "ana@example.com", "s3cret-pass", "")

	stats, err := eng.RunConvergenceSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Converged)

	rec, err := st.Signups().GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, "prof-existing", rec.ProviderProfileID)

	// Update path: sin email de cuenta creada.
	require.Zero(t, sender.accountCreatedCount())
}

func TestMembershipSweep_PushesDirtyRecords(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	st.SeedDirectory(types.DirectoryEntry{CompanyID: "C-9", MemberType: "individual"})
	prov := newFakeProvider()
	sender := &captureSender{}
	eng := newEngine(st, prov, sender)

	// Linkeado y dirty: se empuja.
	linked, err := st.Signups().Create(ctx, &types.SignupRecord{
		Email:               "linked@example.com",
		MembershipCompanyID: "C-9",
		ProviderProfileID:   "prof-1",
		VerificationStatus:  types.VerificationVerified,
		SyncStatus:          types.SyncConverged,
		MembershipDirty:     true,
	})
	require.NoError(t, err)

	// Dirty pero sin perfil linkeado: se saltea.
	_, err = st.Signups().Create(ctx, &types.SignupRecord{
		Email:           "unlinked@example.com",
		SyncStatus:      types.SyncPending,
		MembershipDirty: true,
	})
	require.NoError(t, err)

	stats, err := eng.RunMembershipSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Converged)
	require.Equal(t, 1, stats.Skipped)

	rec, err := st.Signups().GetByEmail(ctx, "linked@example.com")
	require.NoError(t, err)
	require.False(t, rec.MembershipDirty)
	require.Equal(t, "C-9", prov.fields["prof-1"]["companyId"])
	require.Equal(t, "individual", prov.fields["prof-1"]["memberType"])
	_ = linked
}

func TestSweep_NonReentrant(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	prov := newFakeProvider()
	prov.block = make(chan struct{})
	prov.entered = make(chan struct{})
	sender := &captureSender{}
	eng := newEngine(st, prov, sender)

	seedPending(t, st, "ana@example.com", "s3cret-pass", "")

	done := make(chan Stats, 1)
	go func() {
		stats, _ := eng.RunConvergenceSweep(ctx)
		done <- stats
	}()

	// Esperar a que el primer sweep quede bloqueado dentro del provider.
	select {
	case <-prov.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never reached the provider")
	}

	_, err := eng.RunConvergenceSweep(ctx)
	require.ErrorIs(t, err, ErrSweepInProgress)

	// El sweep de membresía tiene guard propio y no se ve afectado.
	_, err = eng.RunMembershipSweep(ctx)
	require.NoError(t, err)

	close(prov.block)
	stats := <-done
	require.Equal(t, 1, stats.Converged)

	// Con el guard liberado el sweep vuelve a correr.
	_, err = eng.RunConvergenceSweep(ctx)
	require.NoError(t, err)
}

func TestConvergenceSweep_StoreScanFailure(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	prov := newFakeProvider()
	sender := &captureSender{}
	eng := newEngine(st, prov, sender)

	st.FailNext(1)
	stats, err := eng.RunConvergenceSweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Failed)
	require.Zero(t, stats.Scanned)
}
