// Package directory resuelve companyId → memberType contra la tabla
// de referencia, señalizando mapeos ambiguos por un side-channel.
package directory

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/AbinJoseph007/new-member-api/internal/domain/types"
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
	"github.com/AbinJoseph007/new-member-api/internal/store/core"
)

// ErrUnknownCompanyID indica que el companyId no existe en el directorio.
var ErrUnknownCompanyID = errors.New("directory: unknown company id")

// Resolution es el resultado de resolver un companyId.
type Resolution struct {
	// Values son los memberType distintos observados, en orden de scan.
	Values []string
	// Selected es el valor elegido (el primero observado).
	Selected string
	// Ambiguous indica que hubo más de un valor distinto.
	Ambiguous bool
}

// AmbiguityNotifier recibe la señal de data-quality cuando un companyId
// mapea a más de un memberType. Fire-and-forget: nunca bloquea al caller.
type AmbiguityNotifier interface {
	NotifyAmbiguousCompanyID(companyID string, values []string)
}

// Lookup resuelve companyIds. Las lecturas concurrentes del mismo id se
// colapsan con singleflight; la notificación de ambigüedad se emite una
// vez por llamada, no por fetch.
type Lookup struct {
	store    core.DirectoryStore
	notifier AmbiguityNotifier
	sf       singleflight.Group
}

// New crea el lookup. notifier puede ser nil (sin side-channel).
func New(store core.DirectoryStore, notifier AmbiguityNotifier) *Lookup {
	return &Lookup{store: store, notifier: notifier}
}

// Resolve aplica la política de selección:
//   - 0 entradas → ErrUnknownCompanyID
//   - 1 valor distinto → ese valor
//   - >1 valor distinto → el primero observado, y una notificación de
//     ambigüedad (señal de data-quality, no un error)
//
// No muta el directorio.
func (l *Lookup) Resolve(ctx context.Context, companyID string) (*Resolution, error) {
	v, err, _ := l.sf.Do(companyID, func() (any, error) {
		return l.store.ListByCompanyID(ctx, companyID)
	})
	if err != nil {
		return nil, fmt.Errorf("directory: lookup %q: %w", companyID, err)
	}
	entries := v.([]types.DirectoryEntry)
	if len(entries) == 0 {
		return nil, ErrUnknownCompanyID
	}

	// Valores distintos, preservando orden de primera aparición.
	seen := make(map[string]struct{}, len(entries))
	var values []string
	for _, e := range entries {
		if _, ok := seen[e.MemberType]; ok {
			continue
		}
		seen[e.MemberType] = struct{}{}
		values = append(values, e.MemberType)
	}

	res := &Resolution{
		Values:    values,
		Selected:  values[0],
		Ambiguous: len(values) > 1,
	}

	if res.Ambiguous {
		logger.From(ctx).Warn("ambiguous company id mapping",
			logger.Component("directory"),
			logger.CompanyID(companyID),
			logger.Any("values", values),
		)
		if l.notifier != nil {
			l.notifier.NotifyAmbiguousCompanyID(companyID, values)
		}
	}

	return res, nil
}
