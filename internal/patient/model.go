package patient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
)

var (
	ErrNotFound       = errors.New("patient not found")
	ErrInvalidProfile = errors.New("invalid patient profile")
)

// Column names of the profile source.
const (
	ColPatientID          = "patient_id"
	ColFirstName          = "first_name"
	ColLastName           = "last_name"
	ColAge                = "age"
	ColEmergencyContact   = "emergency_contact1"
	ColEmergencyRelation  = "emergency_relation1"
	ColEmergencyPhone     = "emergency_phone1"
	ColBloodPressure      = "blood_pressure"
	ColRestingHeartRate   = "resting_heart_rate"
	ColGlucoseLevel       = "glucose_level"
	ColCholesterolLevel   = "cholesterol_level"
	ColCurrentMedications = "current_medications"
)

// RequiredColumns must be present and non-blank for a profile to load.
var RequiredColumns = []string{
	ColFirstName,
	ColLastName,
	ColAge,
	ColEmergencyContact,
	ColEmergencyRelation,
	ColEmergencyPhone,
}

// EmergencyContact is the first-line contact for escalation.
type EmergencyContact struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Phone    string `json:"phone"`
}

// Vitals holds the raw vital sign readings as recorded in the source.
// Values are kept unparsed; the health checker validates them.
type Vitals struct {
	BloodPressure    string `json:"blood_pressure"`
	RestingHeartRate string `json:"resting_heart_rate"`
	GlucoseLevel     string `json:"glucose_level"`
	CholesterolLevel string `json:"cholesterol_level"`
}

// Health is the externally updated part of a profile.
type Health struct {
	Vitals      Vitals
	Medications []string
}

// Profile is a validated patient record. Identity, preferences and contacts
// never change once loaded; Health is swapped atomically when the source is
// updated.
type Profile struct {
	ID        string
	FirstName string
	LastName  string
	Age       int
	Emergency EmergencyContact

	Address    string
	City       string
	State      string
	Occupation string
	Employer   string

	FatherName string
	MotherName string

	MusicPreference string
	Hobbies         []string
	FavoriteFoods   []string
	ExerciseTypes   []string

	ComfortItems       []string
	PreservedMemories  []string
	CognitiveStrengths []string
	DailyRoutine       []string

	PetOwnership string
	PetType      string

	// Attributes keeps every source column, including the ones without a
	// dedicated field.
	Attributes map[string]string

	health atomic.Pointer[Health]
}

// FullName returns "First Last".
func (p *Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// OwnsPet reports whether the source marks the patient as a pet owner.
func (p *Profile) OwnsPet() bool {
	return strings.EqualFold(strings.TrimSpace(p.PetOwnership), "yes")
}

// Health returns the current vitals and medications.
func (p *Profile) Health() Health {
	if h := p.health.Load(); h != nil {
		return *h
	}
	return Health{}
}

// SetHealth replaces vitals and medications.
func (p *Profile) SetHealth(h Health) {
	meds := make([]string, len(h.Medications))
	copy(meds, h.Medications)
	h.Medications = meds
	p.health.Store(&h)
}

// Summary returns a one-line description used by caregivers and at start-up.
func (p *Profile) Summary() string {
	return fmt.Sprintf("%s, age %d. Address: %s, %s. Emergency contact: %s (%s) at %s",
		p.FullName(), p.Age, p.Address, p.City,
		p.Emergency.Name, p.Emergency.Relation, p.Emergency.Phone)
}

// NewProfile validates a source row and builds a Profile from it.
func NewProfile(row map[string]string) (*Profile, error) {
	get := func(col string) string { return strings.TrimSpace(row[col]) }

	id := get(ColPatientID)
	if id == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidProfile, ColPatientID)
	}
	for _, col := range RequiredColumns {
		if get(col) == "" {
			return nil, fmt.Errorf("%w: patient %s: missing required field %s", ErrInvalidProfile, id, col)
		}
	}
	age, err := strconv.Atoi(get(ColAge))
	if err != nil || age < 0 {
		return nil, fmt.Errorf("%w: patient %s: age %q is not a valid number", ErrInvalidProfile, id, get(ColAge))
	}

	attrs := make(map[string]string, len(row))
	for k, v := range row {
		attrs[k] = strings.TrimSpace(v)
	}

	p := &Profile{
		ID:        id,
		FirstName: get(ColFirstName),
		LastName:  get(ColLastName),
		Age:       age,
		Emergency: EmergencyContact{
			Name:     get(ColEmergencyContact),
			Relation: get(ColEmergencyRelation),
			Phone:    get(ColEmergencyPhone),
		},
		Address:            get("address"),
		City:               get("city"),
		State:              get("state"),
		Occupation:         get("occupation"),
		Employer:           get("employer"),
		FatherName:         get("father_name"),
		MotherName:         get("mother_name"),
		MusicPreference:    get("music_preference"),
		Hobbies:            nonBlank(get("hobby1"), get("hobby2"), get("hobby3")),
		FavoriteFoods:      nonBlank(get("favorite_food1"), get("favorite_food2"), get("favorite_food3")),
		ExerciseTypes:      splitList(get("exercise_type")),
		ComfortItems:       splitList(get("comfort_items")),
		PreservedMemories:  splitList(get("preserved_memories")),
		CognitiveStrengths: splitList(get("cognitive_strengths")),
		DailyRoutine:       splitList(get("daily_routine")),
		PetOwnership:       get("pet_ownership"),
		PetType:            get("pet_type"),
		Attributes:         attrs,
	}
	p.SetHealth(healthFromRow(row))
	return p, nil
}

func healthFromRow(row map[string]string) Health {
	return Health{
		Vitals: Vitals{
			BloodPressure:    strings.TrimSpace(row[ColBloodPressure]),
			RestingHeartRate: strings.TrimSpace(row[ColRestingHeartRate]),
			GlucoseLevel:     strings.TrimSpace(row[ColGlucoseLevel]),
			CholesterolLevel: strings.TrimSpace(row[ColCholesterolLevel]),
		},
		Medications: splitList(row[ColCurrentMedications]),
	}
}

// splitList splits a comma separated cell, dropping blanks.
func splitList(s string) []string {
	return nonBlank(strings.Split(s, ",")...)
}

func nonBlank(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && !strings.EqualFold(v, "none") {
			out = append(out, v)
		}
	}
	return out
}
