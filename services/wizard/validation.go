package wizard

import (
	"regexp"
	"strings"

	"medibook/models"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

var validGenders = map[string]bool{
	"male":              true,
	"female":            true,
	"other":             true,
	"prefer-not-to-say": true,
}

// ValidatePrescription checks the stage-4 answers. "no" is valid regardless
// of the details field; "yes" requires non-blank details.
func ValidatePrescription(info models.PrescriptionInfo) map[string]string {
	errs := make(map[string]string)
	if info.HasPrescription == "yes" && strings.TrimSpace(info.Details) == "" {
		errs["prescriptionDetails"] = "Prescription details are required if you have a prescription"
	}
	return errs
}

// ValidatePatient checks the stage-5 form. Every failing field is reported,
// never just the first one.
func ValidatePatient(details models.PatientDetails) map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(details.Name) == "" {
		errs["name"] = "Name is required"
	}
	if !emailPattern.MatchString(details.Email) {
		errs["email"] = "Valid email is required"
	}
	if !phonePattern.MatchString(details.Phone) {
		errs["phone"] = "Valid phone number is required"
	}
	if details.Age < 1 || details.Age > 120 {
		errs["age"] = "Valid age is required"
	}
	if !validGenders[details.Gender] {
		errs["gender"] = "Gender is required"
	}
	if strings.TrimSpace(details.Symptoms) == "" {
		errs["symptoms"] = "Symptoms description is required"
	}
	return errs
}
