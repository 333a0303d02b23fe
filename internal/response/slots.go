package response

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"alzie-companion/internal/patient"
	"alzie-companion/internal/platform/random"
)

// Neutral stand-ins for optional profile fields that are not recorded.
const (
	defaultActivity   = "puzzles"
	defaultExercise   = "long walks"
	defaultFood       = "a cup of tea"
	defaultFamily     = "your family"
	defaultItem       = "comfort items"
	defaultMemory     = "the old days"
	defaultStrength   = "the people you love"
	defaultRoutine    = "rest"
	defaultHobby      = "crafts"
	defaultPet        = "pet"
	defaultEmployer   = "your workplace"
	defaultOccupation = "a working professional"
	defaultMusic      = "music"
	defaultLocation   = "home"
)

type slots map[string]string

// fill substitutes {name} placeholders and capitalizes the sentence.
func fill(template string, s slots) string {
	if len(s) > 0 {
		pairs := make([]string, 0, len(s)*2)
		for k, v := range s {
			pairs = append(pairs, "{"+k+"}", v)
		}
		template = strings.NewReplacer(pairs...).Replace(template)
	}
	return capitalize(template)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// pickOr chooses one of values, or fallback when there are none.
func pickOr(src random.Source, values []string, fallback string) string {
	var present []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return fallback
	}
	return random.Pick(src, present)
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func contactSlot(p *patient.Profile) string {
	return p.Emergency.Name + " (" + p.Emergency.Relation + ")"
}

func locationSlot(p *patient.Profile) string {
	var parts []string
	for _, v := range []string{p.Address, p.City} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return defaultLocation
	}
	return strings.Join(parts, ", ")
}

func identitySlots(p *patient.Profile) slots {
	return slots{
		"name":     p.FullName(),
		"age":      strconv.Itoa(p.Age),
		"location": locationSlot(p),
	}
}

func familySlot(src random.Source, p *patient.Profile) string {
	return pickOr(src, []string{p.FatherName, p.MotherName}, defaultFamily)
}

func timeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	default:
		return "evening"
	}
}
