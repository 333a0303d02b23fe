package mood

import "alzie-companion/internal/platform/random"

// Intervention is a stress-driven action the response engine may take.
type Intervention string

const (
	InterventionNone              Intervention = "none"
	InterventionEmergencyContact  Intervention = "emergency_contact"
	InterventionMusic             Intervention = "music"
	InterventionFamilyReassurance Intervention = "family_reassurance"
	InterventionComfortObject     Intervention = "comfort_object"
	InterventionBreathing         Intervention = "breathing_exercise"
	InterventionFavoriteActivity  Intervention = "favorite_activity"

	// InterventionEmergencySuggested records an emergency reply that offered
	// to call the emergency contact. SuggestIntervention never returns it.
	InterventionEmergencySuggested Intervention = "emergency_contact_suggested"
)

var (
	highStressInterventions     = []Intervention{InterventionMusic, InterventionFamilyReassurance, InterventionComfortObject}
	moderateStressInterventions = []Intervention{InterventionBreathing, InterventionFavoriteActivity}
)

// SuggestIntervention maps a stress level to an intervention. Above 7 the
// answer is always emergency_contact; the two bands below pick uniformly
// from their options; 3 and below needs nothing.
func SuggestIntervention(stress int, src random.Source) Intervention {
	switch {
	case stress > 7:
		return InterventionEmergencyContact
	case stress > 5:
		return random.Pick(src, highStressInterventions)
	case stress > 3:
		return random.Pick(src, moderateStressInterventions)
	default:
		return InterventionNone
	}
}
