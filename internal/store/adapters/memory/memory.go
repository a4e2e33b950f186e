// Package memory implementa core.Store en memoria.
// Se usa en tests y en modo dev (storage.driver: memory).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

// Store es la implementación en memoria. Thread-safe.
type Store struct {
	mu sync.RWMutex

	// records por ID; seq preserva orden de inserción para scans estables.
	records map[string]*types.SignupRecord
	seq     []string

	directory []types.DirectoryEntry
	profiles  map[string]*types.MemberProfile

	// failNextN fuerza core.ErrUnavailable en las próximas N operaciones.
	// Solo para tests de fallos de infraestructura.
	failMu    sync.Mutex
	failNextN int
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		records:  make(map[string]*types.SignupRecord),
		profiles: make(map[string]*types.MemberProfile),
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

func (s *Store) Signups() core.SignupStore               { return (*signupStore)(s) }
func (s *Store) Directory() core.DirectoryStore          { return (*directoryStore)(s) }
func (s *Store) MemberProfiles() core.MemberProfileStore { return (*profileStore)(s) }

// SeedDirectory agrega entradas a la tabla de referencia (orden estable).
func (s *Store) SeedDirectory(entries ...types.DirectoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directory = append(s.directory, entries...)
}

// FailNext hace que las próximas n operaciones fallen con core.ErrUnavailable.
func (s *Store) FailNext(n int) {
	s.failMu.Lock()
	s.failNextN = n
	s.failMu.Unlock()
}

func (s *Store) failNext() bool {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if s.failNextN > 0 {
		s.failNextN--
		return true
	}
	return false
}

// ─── signups ───

type signupStore Store

func (s *signupStore) List(ctx context.Context) ([]types.SignupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if (*Store)(s).failNext() {
		return nil, core.ErrUnavailable
	}
	out := make([]types.SignupRecord, 0, len(s.seq))
	for _, id := range s.seq {
		out = append(out, *s.records[id])
	}
	return out, nil
}

func (s *signupStore) GetByEmail(ctx context.Context, email string) (*types.SignupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if (*Store)(s).failNext() {
		return nil, core.ErrUnavailable
	}
	for _, id := range s.seq {
		if s.records[id].Email == email {
			cp := *s.records[id]
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *signupStore) GetByEmailAndCode(ctx context.Context, email, code string) (*types.SignupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if (*Store)(s).failNext() {
		return nil, core.ErrUnavailable
	}
	for _, id := range s.seq {
		r := s.records[id]
		if r.Email == email && r.VerificationCode != "" && r.VerificationCode == code {
			cp := *r
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *signupStore) Create(ctx context.Context, rec *types.SignupRecord) (*types.SignupRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if (*Store)(s).failNext() {
		return nil, core.ErrUnavailable
	}
	for _, id := range s.seq {
		if s.records[id].Email == rec.Email {
			return nil, core.ErrConflict
		}
	}
	cp := *rec
	cp.ID = uuid.NewString()
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.records[cp.ID] = &cp
	s.seq = append(s.seq, cp.ID)
	out := cp
	return &out, nil
}

func (s *signupStore) Update(ctx context.Context, id string, fields core.Fields) (*types.SignupRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if (*Store)(s).failNext() {
		return nil, core.ErrUnavailable
	}
	r, ok := s.records[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case core.FieldFirstName:
			r.FirstName = v.(string)
		case core.FieldLastName:
			r.LastName = v.(string)
		case core.FieldCompany:
			r.Company = v.(string)
		case core.FieldMembershipCompanyID:
			r.MembershipCompanyID = v.(string)
		case core.FieldPassword:
			r.Password = v.(string)
		case core.FieldVerificationCode:
			r.VerificationCode = v.(string)
		case core.FieldVerificationStatus:
			r.VerificationStatus = v.(types.VerificationStatus)
		case core.FieldProviderProfileID:
			r.ProviderProfileID = v.(string)
		case core.FieldSyncStatus:
			r.SyncStatus = v.(types.SyncStatus)
		case core.FieldMembershipDirty:
			r.MembershipDirty = v.(bool)
		case core.FieldDirector:
			r.Director = v.(bool)
		}
	}
	r.UpdatedAt = time.Now().UTC()
	cp := *r
	return &cp, nil
}

// ─── directory ───

type directoryStore Store

func (s *directoryStore) ListByCompanyID(ctx context.Context, companyID string) ([]types.DirectoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if (*Store)(s).failNext() {
		return nil, core.ErrUnavailable
	}
	var out []types.DirectoryEntry
	for _, e := range s.directory {
		if e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ─── member profiles ───

type profileStore Store

func (s *profileStore) Upsert(ctx context.Context, p *types.MemberProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if (*Store)(s).failNext() {
		return core.ErrUnavailable
	}
	cp := *p
	cp.UpdatedAt = time.Now().UTC()
	s.profiles[cp.Email] = &cp
	return nil
}

func (s *profileStore) GetByEmail(ctx context.Context, email string) (*types.MemberProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if (*Store)(s).failNext() {
		return nil, core.ErrUnavailable
	}
	p, ok := s.profiles[email]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// Emails retorna los emails registrados, ordenados. Helper para tests.
func (s *Store) Emails() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.seq))
	for _, id := range s.seq {
		out = append(out, s.records[id].Email)
	}
	sort.Strings(out)
	return out
}
