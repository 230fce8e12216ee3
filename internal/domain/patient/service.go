package patient

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ehr/patients/pkg/pagination"
)

type Service struct {
	repo   *Repository
	schema *Schema
	logger zerolog.Logger
}

func NewService(repo *Repository, schema *Schema, logger zerolog.Logger) *Service {
	return &Service{repo: repo, schema: schema, logger: logger}
}

// CreatePatient validates p and stores its normalized form. Validation runs
// before the duplicate check, so an invalid body is reported even for an
// existing id.
func (s *Service) CreatePatient(ctx context.Context, p Patient) (Patient, error) {
	normalized, err := s.schema.Patient(p)
	if err != nil {
		return Patient{}, err
	}
	if err := s.repo.Create(ctx, normalized); err != nil {
		return Patient{}, err
	}
	s.log(ctx).Info().Str("patient_id", normalized.ID).Msg("patient created")
	return normalized, nil
}

func (s *Service) GetPatient(ctx context.Context, id string) (View, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return NewView(p.Stored()), nil
}

// ViewAll returns the whole document with derived fields, keyed by id.
func (s *Service) ViewAll(ctx context.Context) (map[string]View, error) {
	doc, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]View, len(doc))
	for id, p := range doc {
		out[id] = NewView(p.Stored())
	}
	return out, nil
}

func (s *Service) SortPatients(ctx context.Context, field, order string) ([]View, error) {
	patients, err := s.repo.Sort(ctx, field, order)
	if err != nil {
		return nil, err
	}
	return views(patients), nil
}

// ListPatients returns one page of records in id order.
func (s *Service) ListPatients(ctx context.Context, p pagination.Params) (pagination.Page[View], error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return pagination.Page[View]{}, err
	}
	return pagination.NewPage(views(pagination.Slice(patients, p)), len(patients), p), nil
}

// UpdatePatient merges upd onto the stored record and re-validates the
// result as a complete record. Nothing is written unless validation passes.
func (s *Service) UpdatePatient(ctx context.Context, id string, upd PatientUpdate) (Patient, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	normalized, err := s.schema.Patient(Merge(existing, id, upd))
	if err != nil {
		return Patient{}, err
	}
	if err := s.repo.Replace(ctx, normalized); err != nil {
		return Patient{}, err
	}
	s.log(ctx).Info().Str("patient_id", id).Strs("fields", upd.Fields()).Msg("patient updated")
	return normalized, nil
}

func (s *Service) DeletePatient(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log(ctx).Info().Str("patient_id", id).Msg("patient deleted")
	return nil
}

func views(patients []Patient) []View {
	out := make([]View, 0, len(patients))
	for _, p := range patients {
		out = append(out, NewView(p))
	}
	return out
}

// log prefers the request-scoped logger carried by ctx.
func (s *Service) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}
