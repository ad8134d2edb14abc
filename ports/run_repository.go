package ports

import (
	"context"

	"policypulse/domain/core"
	"policypulse/domain/impact"
)

// RunRepository persists pipeline run summaries for later comparison and for
// the artifact API. Persistence is optional; a nil repository means runs are
// not recorded.
type RunRepository interface {
	Save(ctx context.Context, record impact.RunRecord) error
	ListByEntity(ctx context.Context, entity core.EntityKey) ([]impact.RunRecord, error)
	ListRecent(ctx context.Context, limit int) ([]impact.RunRecord, error)
}
