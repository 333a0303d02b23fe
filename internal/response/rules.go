package response

import (
	"math"
	"strings"

	"alzie-companion/internal/mood"
	"alzie-companion/internal/orientation"
	"alzie-companion/internal/platform/keywords"
	"alzie-companion/internal/platform/random"
)

// Keyword sets, matched as whole words or phrases.
var (
	IdentityKeywords      = []string{"who am i", "my name", "what is my name"}
	LocationKeywords      = []string{"where am i", "what is this place", "this place", "location"}
	AgentIdentityKeywords = []string{"who are you", "what are you", "your name"}
	EmergencyKeywords     = []string{"call", "contact", "emergency", "help me"}
	PlayMusicKeywords     = []string{"play music", "some music", "listen to", "music please"}
	StopMusicKeywords     = []string{"stop music", "quiet", "turn off", "no music"}
	VolumeUpKeywords      = []string{"volume up", "louder", "increase volume"}
	VolumeDownKeywords    = []string{"volume down", "quieter", "decrease volume"}
	MemoryKeywords        = []string{"remember", "forgot", "memory", "recall"}
	ComfortKeywords       = []string{"scared", "anxious", "upset", "afraid", "nervous"}
	ActivityKeywords      = []string{"bored", "do now", "what to do", "nothing to do", "lonely"}
	GreetingKeywords      = []string{"hello", "hi", "good morning", "good afternoon", "hey"}
	TimeKeywords          = []string{"time", "what time", "schedule", "appointment"}
	FoodKeywords          = []string{"hungry", "food", "eat", "thirsty", "meal"}
	FamilyKeywords        = []string{"family", "mother", "father", "son", "daughter", "parents"}
	ReassuranceKeywords   = []string{"help", "scared", "lost", "confused", "anxiety"}
	HealthKeywords        = []string{"health", "vitals", "blood pressure", "heart rate"}
	HobbyKeywords         = []string{"hobby", "chess", "read", "photography"}
	PetKeywords           = []string{"pet", "dog", "animal", "companion"}
	WorkKeywords          = []string{"work", "job", "employer", "office"}
)

type request struct {
	Turn
	text keywords.Text
}

func (r *request) has(phrases []string) bool {
	return r.text.ContainsAny(phrases)
}

type rule struct {
	category Category
	match    func(*request) bool
	respond  func(*request) Reply
}

func on(phrases []string) func(*request) bool {
	return func(r *request) bool { return r.has(phrases) }
}

func always(*request) bool { return true }

// buildRules returns the rules in priority order.
func (e *Engine) buildRules() []rule {
	return []rule{
		{CategoryOrientation, func(r *request) bool { return r.OrientationDue }, e.orientation},
		{CategoryIdentity, on(IdentityKeywords), e.identity},
		{CategoryLocation, on(LocationKeywords), e.location},
		{CategoryAgentIdentity, on(AgentIdentityKeywords), e.agentIdentity},
		{CategoryEmergency, func(r *request) bool { return r.has(EmergencyKeywords) || r.Mood.Mood == mood.Urgent }, e.emergency},
		{CategoryIntervention, func(r *request) bool {
			return r.Intervention != "" && r.Intervention != mood.InterventionNone
		}, e.intervention},
		{CategoryMusicControl, func(r *request) bool {
			return r.has(PlayMusicKeywords) || r.has(StopMusicKeywords) || r.has(VolumeUpKeywords) || r.has(VolumeDownKeywords)
		}, e.musicControl},
		{CategoryMemory, on(MemoryKeywords), e.memory},
		{CategoryComfort, on(ComfortKeywords), e.comfort},
		{CategoryActivity, on(ActivityKeywords), e.activity},
		{CategoryGreeting, on(GreetingKeywords), e.greeting},
		{CategoryTime, on(TimeKeywords), e.timeBased},
		{CategoryFood, on(FoodKeywords), e.food},
		{CategoryFamily, on(FamilyKeywords), e.family},
		{CategoryReassurance, on(ReassuranceKeywords), e.reassurance},
		{CategoryHealth, on(HealthKeywords), e.health},
		{CategoryHobby, on(HobbyKeywords), e.hobby},
		{CategoryPet, on(PetKeywords), e.pet},
		{CategoryWork, on(WorkKeywords), e.work},
		{CategoryMedication, func(r *request) bool { return len(r.MedicationReminders) > 0 }, e.medication},
		{CategoryDefault, always, e.fallback},
	}
}

func (e *Engine) orientation(r *request) Reply {
	info := orientation.FactsFor(r.Profile, r.Now).String()
	return Reply{Text: e.phrase(PhrasesOrientation, slots{"orientation_info": info})}
}

func (e *Engine) identity(r *request) Reply {
	return Reply{Text: e.phrase(PhrasesIdentity, identitySlots(r.Profile))}
}

func (e *Engine) location(r *request) Reply {
	return Reply{Text: e.phrase(PhrasesLocation, slots{"location": locationSlot(r.Profile)})}
}

func (e *Engine) agentIdentity(*request) Reply {
	return Reply{Text: AgentDescription}
}

func (e *Engine) emergency(r *request) Reply {
	return Reply{Text: e.phrase(PhrasesEmergency, slots{"contact": contactSlot(r.Profile)})}
}

func (e *Engine) intervention(r *request) Reply {
	switch r.Intervention {
	case mood.InterventionEmergencyContact:
		text := StressedPrefix + e.phrase(PhrasesEmergency, slots{"contact": contactSlot(r.Profile)})
		return Reply{Text: text, Intervention: mood.InterventionEmergencyContact}
	case mood.InterventionMusic:
		if e.player.Play("") {
			return Reply{Text: e.musicPhrase(r), Intervention: mood.InterventionMusic}
		}
		return Reply{Text: e.phrase(PhrasesBreathing, nil), Intervention: mood.InterventionBreathing}
	case mood.InterventionFamilyReassurance:
		return Reply{Text: e.familyPhrase(r), Intervention: mood.InterventionFamilyReassurance}
	case mood.InterventionComfortObject:
		return Reply{Text: e.comfortPhrase(r), Intervention: mood.InterventionComfortObject}
	case mood.InterventionBreathing:
		return Reply{Text: e.phrase(PhrasesBreathing, nil), Intervention: mood.InterventionBreathing}
	case mood.InterventionFavoriteActivity:
		return Reply{Text: e.activityPhrase(r), Intervention: mood.InterventionFavoriteActivity}
	default:
		return e.fallback(r)
	}
}

func (e *Engine) musicControl(r *request) Reply {
	switch {
	case r.has(PlayMusicKeywords):
		if e.player.Play("") {
			return Reply{Text: e.musicPhrase(r)}
		}
		return Reply{Text: NoMusicMessage}
	case r.has(StopMusicKeywords):
		e.player.Stop()
		return Reply{Text: MusicStopped}
	case r.has(VolumeUpKeywords):
		e.player.SetVolume(math.Min(1, e.player.Volume()+volumeStep))
		return Reply{Text: VolumeIncreased}
	default:
		e.player.SetVolume(math.Max(0, e.player.Volume()-volumeStep))
		return Reply{Text: VolumeDecreased}
	}
}

func (e *Engine) memory(r *request) Reply {
	p := r.Profile
	return Reply{Text: e.phrase(PhrasesMemory, slots{
		"activity": pickOr(e.rand, p.ExerciseTypes, defaultExercise),
		"memory":   pickOr(e.rand, p.PreservedMemories, defaultMemory),
		"strength": pickOr(e.rand, p.CognitiveStrengths, defaultStrength),
	})}
}

func (e *Engine) comfort(r *request) Reply {
	return Reply{Text: e.comfortPhrase(r)}
}

func (e *Engine) activity(r *request) Reply {
	return Reply{Text: e.activityPhrase(r)}
}

func (e *Engine) greeting(r *request) Reply {
	return Reply{Text: e.phrase(PhrasesGreeting, slots{"time": timeOfDay(r.Now)})}
}

func (e *Engine) timeBased(r *request) Reply {
	return Reply{Text: e.phrase(PhrasesTime, slots{
		"current_time": r.Now.Format("03:04 PM"),
		"routine":      pickOr(e.rand, r.Profile.DailyRoutine, defaultRoutine),
	})}
}

func (e *Engine) food(r *request) Reply {
	return Reply{Text: e.phrase(PhrasesFood, slots{"food": pickOr(e.rand, r.Profile.FavoriteFoods, defaultFood)})}
}

func (e *Engine) family(r *request) Reply {
	return Reply{Text: e.familyPhrase(r)}
}

func (e *Engine) reassurance(*request) Reply {
	return Reply{Text: e.phrase(PhrasesReassurance, nil)}
}

func (e *Engine) health(r *request) Reply {
	if len(r.Alerts) == 0 {
		return Reply{Text: VitalsNormal}
	}
	vital := random.Pick(e.rand, r.Alerts)
	return Reply{Text: e.phrase(PhrasesHealth, slots{"vital": string(vital)})}
}

func (e *Engine) hobby(r *request) Reply {
	return Reply{Text: e.phrase(PhrasesHobby, slots{"hobby": pickOr(e.rand, r.Profile.Hobbies, defaultHobby)})}
}

func (e *Engine) pet(r *request) Reply {
	if !r.Profile.OwnsPet() {
		return Reply{Text: NoPetMessage}
	}
	return Reply{Text: e.phrase(PhrasesPet, slots{"pet": orDefault(strings.ToLower(r.Profile.PetType), defaultPet)})}
}

func (e *Engine) work(r *request) Reply {
	return Reply{Text: e.phrase(PhrasesWork, slots{
		"employer":   orDefault(r.Profile.Employer, defaultEmployer),
		"occupation": orDefault(r.Profile.Occupation, defaultOccupation),
	})}
}

func (e *Engine) medication(r *request) Reply {
	return Reply{Text: MedicationReminder + strings.Join(r.MedicationReminders, ", ")}
}

func (e *Engine) fallback(r *request) Reply {
	if e.rand.Float64() < namedDefaultChance {
		return Reply{Text: e.phrase(PhrasesDefaultNamed, slots{"name": r.Profile.FirstName})}
	}
	return Reply{Text: e.phrase(PhrasesDefault, nil)}
}

func (e *Engine) musicPhrase(r *request) string {
	return e.phrase(PhrasesMusic, slots{"music_preference": orDefault(r.Profile.MusicPreference, defaultMusic)})
}

func (e *Engine) familyPhrase(r *request) string {
	return e.phrase(PhrasesFamily, slots{"family_member": familySlot(e.rand, r.Profile)})
}

func (e *Engine) comfortPhrase(r *request) string {
	return e.phrase(PhrasesComfort, slots{"item": pickOr(e.rand, r.Profile.ComfortItems, defaultItem)})
}

func (e *Engine) activityPhrase(r *request) string {
	return e.phrase(PhrasesActivity, slots{"activity": pickOr(e.rand, r.Profile.Hobbies, defaultActivity)})
}
