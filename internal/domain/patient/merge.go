package patient

// Merge applies upd onto a copy of existing and re-affixes id. The result is
// not yet valid: callers must pass it through Schema.Patient before storing.
func Merge(existing Patient, id string, upd PatientUpdate) Patient {
	merged := existing
	upd.Name.apply(&merged.Name)
	upd.City.apply(&merged.City)
	upd.Age.apply(&merged.Age)
	upd.Gender.apply(&merged.Gender)
	upd.Height.apply(&merged.Height)
	upd.Weight.apply(&merged.Weight)
	merged.ID = id
	return merged
}

// Fields lists the json names of the fields set in the update.
func (u PatientUpdate) Fields() []string {
	var out []string
	if u.Name.Set {
		out = append(out, "name")
	}
	if u.City.Set {
		out = append(out, "city")
	}
	if u.Age.Set {
		out = append(out, "age")
	}
	if u.Gender.Set {
		out = append(out, "gender")
	}
	if u.Height.Set {
		out = append(out, "height")
	}
	if u.Weight.Set {
		out = append(out, "weight")
	}
	return out
}
