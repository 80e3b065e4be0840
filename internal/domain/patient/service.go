package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/careplan/careplan/internal/outcome"
	"github.com/careplan/careplan/internal/platform/db"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Identity is the submitted patient identity the adjudication rules
// compare against stored records.
type Identity struct {
	MRN       string
	FirstName string
	LastName  string
	DOB       string
}

// Resolve applies the MRN-first identity rules and returns the record
// to reuse (nil means create a new one) plus any soft-conflict warnings.
//
// The MRN is the stronger signal in this path: an existing MRN whose
// name or DOB disagrees with the submission is reused with a warning,
// not blocked, because the facility-assigned number is trusted over the
// conflicting attributes. A patient with the same name and DOB under a
// different MRN warns but still gets a fresh record.
func (s *Service) Resolve(ctx context.Context, id Identity) (*Patient, []outcome.Warning, error) {
	existing, err := s.repo.GetByMRN(ctx, id.MRN)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		nameMatch := existing.FirstName == id.FirstName && existing.LastName == id.LastName
		dobMatch := existing.DOB == id.DOB
		if nameMatch && dobMatch {
			return existing, nil, nil
		}

		var diffs []string
		if !nameMatch {
			diffs = append(diffs, fmt.Sprintf("name: on file %q, submitted %q",
				existing.FirstName+" "+existing.LastName, id.FirstName+" "+id.LastName))
		}
		if !dobMatch {
			diffs = append(diffs, fmt.Sprintf("DOB: on file %q, submitted %q", existing.DOB, id.DOB))
		}
		w := outcome.Warning{
			Code: "MRN_INFO_MISMATCH",
			Message: fmt.Sprintf("MRN %s exists with conflicting information: %s. The existing patient record will be reused.",
				id.MRN, strings.Join(diffs, "; ")),
		}
		return existing, []outcome.Warning{w}, nil
	}

	matched, err := s.repo.FindByIdentity(ctx, id.FirstName, id.LastName, id.DOB)
	if err != nil {
		return nil, nil, err
	}
	if matched != nil {
		w := outcome.Warning{
			Code: "POSSIBLE_DUPLICATE_PATIENT",
			Message: fmt.Sprintf("Patient %q (DOB: %s) already exists under MRN %s, but this submission carries MRN %s. A new patient record will be created.",
				id.FirstName+" "+id.LastName, id.DOB, matched.MRN, id.MRN),
		}
		return nil, []outcome.Warning{w}, nil
	}

	return nil, nil, nil
}

// Ensure returns the patient record for the identity, creating one when
// Resolve found nothing to reuse. A lost insert race on the MRN unique
// index resolves by re-running the identity rules against the winner.
func (s *Service) Ensure(ctx context.Context, id Identity) (*Patient, []outcome.Warning, error) {
	existing, warnings, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return existing, warnings, nil
	}

	p := &Patient{MRN: id.MRN, FirstName: id.FirstName, LastName: id.LastName, DOB: id.DOB}
	err = s.repo.Create(ctx, p)
	if err == nil {
		return p, warnings, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, nil, err
	}
	return s.Resolve(ctx, id)
}
