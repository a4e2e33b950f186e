package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

type signupStore struct {
	pool *pgxpool.Pool
}

const signupColumns = `id, email, first_name, last_name, company, membership_company_id,
	password, verification_code, verification_status, provider_profile_id,
	sync_status, membership_dirty, director, created_at, updated_at`

func scanSignup(row pgx.Row) (*types.SignupRecord, error) {
	var r types.SignupRecord
	var status, sync string
	err := row.Scan(
		&r.ID, &r.Email, &r.FirstName, &r.LastName, &r.Company, &r.MembershipCompanyID,
		&r.Password, &r.VerificationCode, &status, &r.ProviderProfileID,
		&sync, &r.MembershipDirty, &r.Director, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.VerificationStatus = types.VerificationStatus(status)
	r.SyncStatus = types.SyncStatus(sync)
	return &r, nil
}

func (s *signupStore) List(ctx context.Context) ([]types.SignupRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+signupColumns+` FROM signup_records ORDER BY created_at, id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []types.SignupRecord
	for rows.Next() {
		r, err := scanSignup(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *signupStore) GetByEmail(ctx context.Context, email string) (*types.SignupRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+signupColumns+` FROM signup_records WHERE email = $1`, email)
	r, err := scanSignup(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}

func (s *signupStore) GetByEmailAndCode(ctx context.Context, email, code string) (*types.SignupRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+signupColumns+` FROM signup_records
		 WHERE email = $1 AND verification_code <> '' AND verification_code = $2`,
		email, code)
	r, err := scanSignup(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}

func (s *signupStore) Create(ctx context.Context, rec *types.SignupRecord) (*types.SignupRecord, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO signup_records
		 (email, first_name, last_name, company, membership_company_id, password,
		  verification_code, verification_status, provider_profile_id, sync_status,
		  membership_dirty, director)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 RETURNING `+signupColumns,
		rec.Email, rec.FirstName, rec.LastName, rec.Company, rec.MembershipCompanyID,
		rec.Password, rec.VerificationCode, string(rec.VerificationStatus),
		rec.ProviderProfileID, string(rec.SyncStatus), rec.MembershipDirty, rec.Director)
	out, err := scanSignup(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *signupStore) Update(ctx context.Context, id string, fields core.Fields) (*types.SignupRecord, error) {
	if len(fields) == 0 {
		row := s.pool.QueryRow(ctx,
			`SELECT `+signupColumns+` FROM signup_records WHERE id = $1`, id)
		r, err := scanSignup(row)
		if err != nil {
			return nil, mapErr(err)
		}
		return r, nil
	}

	set := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	i := 1
	for k, v := range fields {
		// Los enums viajan como string plano.
		switch tv := v.(type) {
		case types.VerificationStatus:
			v = string(tv)
		case types.SyncStatus:
			v = string(tv)
		}
		set = append(set, fmt.Sprintf("%s = $%d", k, i))
		args = append(args, v)
		i++
	}
	set = append(set, "updated_at = now()")
	args = append(args, id)

	row := s.pool.QueryRow(ctx,
		`UPDATE signup_records SET `+strings.Join(set, ", ")+
			fmt.Sprintf(` WHERE id = $%d RETURNING `, i)+signupColumns,
		args...)
	r, err := scanSignup(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}
