package patient

import (
	"fmt"
	"math"
)

// BMI verdicts.
const (
	VerdictUnderweight = "Underweight"
	VerdictNormal      = "Normal"
	VerdictOverweight  = "Overweight"
	VerdictObese       = "Obese"
)

// BMI returns weight / height² rounded to two decimal places, halves to even.
func BMI(weight, height float64) (float64, error) {
	if height <= 0 {
		return 0, fmt.Errorf("%w: height must be greater than 0, got %v", ErrInvalidInput, height)
	}
	return math.RoundToEven(weight/(height*height)*100) / 100, nil
}

// Verdict maps a BMI onto its category. Each band includes its lower bound.
func Verdict(bmi float64) string {
	switch {
	case bmi < 18.5:
		return VerdictUnderweight
	case bmi < 25:
		return VerdictNormal
	case bmi < 30:
		return VerdictOverweight
	default:
		return VerdictObese
	}
}

// Derive computes the derived fields of p.
func Derive(p Patient) (DerivedView, error) {
	bmi, err := BMI(p.Weight, p.Height)
	if err != nil {
		return DerivedView{}, err
	}
	return DerivedView{BMI: bmi, Verdict: Verdict(bmi)}, nil
}

// NewView pairs p with its derived fields. Records whose height is not
// positive cannot come out of the schema, but a hand-edited document may hold
// them; those render with a zero BMI rather than failing the whole read.
func NewView(p Patient) View {
	d, err := Derive(p)
	if err != nil {
		return View{Patient: p}
	}
	return View{Patient: p, DerivedView: d}
}
