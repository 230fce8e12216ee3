package patient

// Patient is one record of the patient document. ID is the document key and
// is never written into the stored field mapping.
type Patient struct {
	ID     string  `json:"id,omitempty" validate:"required"`
	Name   string  `json:"name" validate:"required,max=50"`
	City   string  `json:"city" validate:"required"`
	Age    int     `json:"age" validate:"gt=0,lt=120"`
	Gender string  `json:"gender" validate:"oneof=male female other"`
	Height float64 `json:"height" validate:"gt=0"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

// Stored returns the record as persisted under its id key.
func (p Patient) Stored() Patient {
	p.ID = ""
	return p
}

// PatientUpdate carries a sparse set of field assignments. Fields the caller
// never mentioned stay unset and are not applied by Merge.
type PatientUpdate struct {
	Name   Optional[string]  `json:"name"`
	City   Optional[string]  `json:"city"`
	Age    Optional[int]     `json:"age"`
	Gender Optional[string]  `json:"gender"`
	Height Optional[float64] `json:"height"`
	Weight Optional[float64] `json:"weight"`
}

// DerivedView holds values computed from a stored record on every read.
type DerivedView struct {
	BMI     float64 `json:"bmi"`
	Verdict string  `json:"verdict"`
}

// View is the outbound representation of a patient: the stored fields plus
// the derived ones.
type View struct {
	Patient
	DerivedView
}

// Document is the whole persisted store: patient id to stored record.
type Document map[string]Patient
