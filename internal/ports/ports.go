package ports

import (
	"context"
	"iter"

	"OAIHealthCheck/internal/domain"
)

// IdentitySource answers the repository self-description verb.
type IdentitySource interface {
	Identify(ctx context.Context, endpoint string) (domain.RepositoryIdentity, error)
}

// RecordSource lists non-deleted records of the fixed metadata profile.
// The sequence ends when the source is exhausted or the consumer stops ranging;
// a non-nil error ends it as well.
type RecordSource interface {
	ListRecords(ctx context.Context, endpoint string) iter.Seq2[domain.RawRecord, error]
}

// SnapshotExporter writes a view to a self-contained file.
type SnapshotExporter interface {
	Write(ctx context.Context, path string, view domain.View) error
}
