package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
)

type profileStore struct {
	pool *pgxpool.Pool
}

func (s *profileStore) Upsert(ctx context.Context, p *types.MemberProfile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO member_profiles (email, provider_profile_id, member_type, company_id, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (email) DO UPDATE SET
		   provider_profile_id = EXCLUDED.provider_profile_id,
		   member_type         = EXCLUDED.member_type,
		   company_id          = EXCLUDED.company_id,
		   updated_at          = now()`,
		p.Email, p.ProviderProfileID, p.MemberType, p.CompanyID)
	return mapErr(err)
}

func (s *profileStore) GetByEmail(ctx context.Context, email string) (*types.MemberProfile, error) {
	var p types.MemberProfile
	err := s.pool.QueryRow(ctx,
		`SELECT email, provider_profile_id, member_type, company_id, updated_at
		 FROM member_profiles WHERE email = $1`, email).
		Scan(&p.Email, &p.ProviderProfileID, &p.MemberType, &p.CompanyID, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}
