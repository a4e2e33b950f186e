package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
)

type directoryStore struct {
	pool *pgxpool.Pool
}

func (s *directoryStore) ListByCompanyID(ctx context.Context, companyID string) ([]types.DirectoryEntry, error) {
	// Orden estable: el "primer valor observado" de un mapeo ambiguo
	// tiene que ser determinístico entre scans.
	rows, err := s.pool.Query(ctx,
		`SELECT company_id, member_type FROM company_directory
		 WHERE company_id = $1
		 ORDER BY id`, companyID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []types.DirectoryEntry
	for rows.Next() {
		var e types.DirectoryEntry
		if err := rows.Scan(&e.CompanyID, &e.MemberType); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
