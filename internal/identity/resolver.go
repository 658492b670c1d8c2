// Package identity resolves a repository's self-description.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/ports"
)

// Fallbacks used when the endpoint omits a field.
const (
	DefaultName            = "Unknown"
	DefaultProtocolVersion = "2.0"
	DefaultAdminEmail      = "not public"
)

// Resolver fetches RepositoryIdentity through an IdentitySource.
type Resolver struct {
	source ports.IdentitySource
	logger *slog.Logger
}

// NewResolver wires the source; logger may be nil.
func NewResolver(source ports.IdentitySource, logger *slog.Logger) *Resolver {
	return &Resolver{source: source, logger: logger}
}

// Resolve queries endpoint once. Every source failure becomes a
// domain.TransportError; URL well-formedness is not checked here.
func (r *Resolver) Resolve(ctx context.Context, endpoint string) (domain.RepositoryIdentity, error) {
	if strings.TrimSpace(endpoint) == "" {
		return domain.RepositoryIdentity{}, domain.ErrEmptyEndpoint
	}

	id, err := r.source.Identify(ctx, endpoint)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("identify failed", "endpoint", endpoint, "error", err)
		}
		var te *domain.TransportError
		if errors.As(err, &te) {
			return domain.RepositoryIdentity{}, err
		}
		return domain.RepositoryIdentity{}, &domain.TransportError{Op: "identify", Endpoint: endpoint, Err: err}
	}

	return withDefaults(id), nil
}

func withDefaults(id domain.RepositoryIdentity) domain.RepositoryIdentity {
	if strings.TrimSpace(id.Name) == "" {
		id.Name = DefaultName
	}
	if strings.TrimSpace(id.ProtocolVersion) == "" {
		id.ProtocolVersion = DefaultProtocolVersion
	}
	if strings.TrimSpace(id.AdminEmail) == "" {
		id.AdminEmail = DefaultAdminEmail
	}
	return id
}
