package patient

import (
	"context"
	"fmt"
	"sort"
)

// DocumentStore persists the whole patient document. Load returns an empty
// document when nothing has been saved yet; Save replaces prior content in
// full.
type DocumentStore interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}

// Sort fields and orders accepted by Repository.Sort.
var (
	SortFields = []string{"height", "weight", "bmi"}
	SortOrders = []string{"asc", "desc"}
)

// Repository implements the record operations as load-modify-save cycles
// over a DocumentStore. It holds no lock: concurrent mutations race and the
// last Save wins.
type Repository struct {
	store DocumentStore
}

func NewRepository(store DocumentStore) *Repository {
	return &Repository{store: store}
}

func (r *Repository) All(ctx context.Context) (Document, error) {
	return r.store.Load(ctx)
}

func (r *Repository) Get(ctx context.Context, id string) (Patient, error) {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return Patient{}, err
	}
	p, ok := doc[id]
	if !ok {
		return Patient{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	p.ID = id
	return p, nil
}

func (r *Repository) Create(ctx context.Context, p Patient) error {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, exists := doc[p.ID]; exists {
		return fmt.Errorf("create %q: %w", p.ID, ErrConflict)
	}
	doc[p.ID] = p.Stored()
	return r.store.Save(ctx, doc)
}

// Replace overwrites the stored record for p.ID.
func (r *Repository) Replace(ctx context.Context, p Patient) error {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, exists := doc[p.ID]; !exists {
		return fmt.Errorf("replace %q: %w", p.ID, ErrNotFound)
	}
	doc[p.ID] = p.Stored()
	return r.store.Save(ctx, doc)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, exists := doc[id]; !exists {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	delete(doc, id)
	return r.store.Save(ctx, doc)
}

// List returns the records ordered by id.
func (r *Repository) List(ctx context.Context) ([]Patient, error) {
	doc, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Patients(), nil
}

// Sort returns every record ordered by height, weight or the derived bmi.
// Records whose value is missing order as 0. Ties keep id order.
func (r *Repository) Sort(ctx context.Context, field, order string) ([]Patient, error) {
	key, err := sortKey(field)
	if err != nil {
		return nil, err
	}
	desc, err := descending(order)
	if err != nil {
		return nil, err
	}

	doc, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := doc.Patients()
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return key(out[i]) > key(out[j])
		}
		return key(out[i]) < key(out[j])
	})
	return out, nil
}

// Patients flattens the document into records carrying their ids, in id
// order.
func (d Document) Patients() []Patient {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Patient, 0, len(ids))
	for _, id := range ids {
		p := d[id]
		p.ID = id
		out = append(out, p)
	}
	return out
}

func sortKey(field string) (func(Patient) float64, error) {
	switch field {
	case "height":
		return func(p Patient) float64 { return p.Height }, nil
	case "weight":
		return func(p Patient) float64 { return p.Weight }, nil
	case "bmi":
		return func(p Patient) float64 {
			bmi, err := BMI(p.Weight, p.Height)
			if err != nil {
				return 0
			}
			return bmi
		}, nil
	}
	return nil, fmt.Errorf("%w: field %q, select from %v", ErrInvalidSort, field, SortFields)
}

func descending(order string) (bool, error) {
	switch order {
	case "", "asc":
		return false, nil
	case "desc":
		return true, nil
	}
	return false, fmt.Errorf("%w: order %q, select between asc and desc", ErrInvalidSort, order)
}
