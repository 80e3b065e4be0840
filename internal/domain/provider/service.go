package provider

import (
	"context"
	"fmt"

	"github.com/careplan/careplan/internal/outcome"
	"github.com/careplan/careplan/internal/platform/db"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve looks up the provider registered under the NPI.
//   - no record: returns (nil, nil), the caller creates one later
//   - record with identical name: reuse it
//   - record with a different name: block; the NPI is a national license
//     number and a name mismatch means a data-entry error somewhere
func (s *Service) Resolve(ctx context.Context, npi, name string) (*Provider, error) {
	existing, err := s.repo.GetByNPI(ctx, npi)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if existing.Name == name {
		return existing, nil
	}
	return nil, npiConflict(npi, existing.Name, name)
}

// Ensure returns the provider for the NPI, creating it when absent.
// Two submissions can race here; the unique index on npi decides the
// winner and the loser re-fetches and re-runs the identity rule.
func (s *Service) Ensure(ctx context.Context, npi, name string) (*Provider, error) {
	existing, err := s.Resolve(ctx, npi, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	p := &Provider{NPI: npi, Name: name}
	err = s.repo.Create(ctx, p)
	if err == nil {
		return p, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, err
	}
	return s.Resolve(ctx, npi, name)
}

func npiConflict(npi, existingName, submittedName string) *outcome.Failure {
	return outcome.Block(
		"NPI_CONFLICT",
		fmt.Sprintf("NPI %s is already registered to %q and cannot be used for %q. The NPI is a nationally unique license number; please verify.", npi, existingName, submittedName),
		map[string]interface{}{
			"npi":            npi,
			"existing_name":  existingName,
			"submitted_name": submittedName,
		},
	)
}
