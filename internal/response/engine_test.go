package response

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alzie-companion/internal/health"
	"alzie-companion/internal/mood"
	"alzie-companion/internal/patient"
	"alzie-companion/internal/platform/random"
)

type fakePlayer struct {
	available bool
	playing   bool
	volume    float64
	plays     int
}

func (p *fakePlayer) Play(string) bool {
	p.plays++
	p.playing = p.available
	return p.available
}
func (p *fakePlayer) Stop()               { p.playing = false }
func (p *fakePlayer) SetVolume(v float64) { p.volume = v }
func (p *fakePlayer) Volume() float64     { return p.volume }
func (p *fakePlayer) IsPlaying() bool     { return p.playing }

// fixedSource returns index for IntN and f for Float64.
type fixedSource struct {
	index int
	f     float64
}

func (s fixedSource) IntN(n int) int   { return s.index % n }
func (s fixedSource) Float64() float64 { return s.f }

var noon = time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)

func sampleProfile(t *testing.T) *patient.Profile {
	t.Helper()
	p, err := patient.NewProfile(map[string]string{
		"patient_id":          "SM1001",
		"first_name":          "Saksham",
		"last_name":           "Malhotra",
		"age":                 "28",
		"emergency_contact1":  "Naveen Malhotra",
		"emergency_relation1": "Father",
		"emergency_phone1":    "+1 (555) 987-6543",
		"address":             "123 Wellness Lane",
		"city":                "Health City",
		"state":               "CA",
		"occupation":          "Software Engineer",
		"employer":            "Tech Solutions Inc",
		"father_name":         "Naveen Malhotra",
		"mother_name":         "Renu Malhotra",
		"hobby1":              "Reading",
		"hobby2":              "Photography",
		"hobby3":              "Chess",
		"favorite_food1":      "Butter Chicken",
		"music_preference":    "Classical",
		"comfort_items":       "blue blanket",
		"preserved_memories":  "your trip to Shimla",
		"cognitive_strengths": "chess openings",
		"daily_routine":       "afternoon walk",
		"pet_ownership":       "Yes",
		"pet_type":            "Dog",
	})
	require.NoError(t, err)
	return p
}

func minimalProfile(t *testing.T) *patient.Profile {
	t.Helper()
	p, err := patient.NewProfile(map[string]string{
		"patient_id":          "P2",
		"first_name":          "Ann",
		"last_name":           "Lee",
		"age":                 "80",
		"emergency_contact1":  "Bob Lee",
		"emergency_relation1": "Son",
		"emergency_phone1":    "555-1",
	})
	require.NoError(t, err)
	return p
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithRandom(random.New(1))}, opts...)
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	return e
}

func turn(p *patient.Profile, utterance string) Turn {
	return Turn{Utterance: utterance, Profile: p, Mood: mood.State{Mood: mood.Neutral}, Now: noon}
}

func TestRespond_NoProfile(t *testing.T) {
	e := newEngine(t)
	for _, u := range []string{"hello", "", "emergency help", "who am i"} {
		reply := e.Respond(Turn{Utterance: u, OrientationDue: true})
		assert.Equal(t, "Please select a patient first", reply.Text)
		assert.Equal(t, CategoryNoPatient, reply.Category)
	}
}

func TestRespond_EmptyUtterance(t *testing.T) {
	e := newEngine(t)
	p := sampleProfile(t)
	for i := 0; i < 20; i++ {
		tr := turn(p, "  ")
		tr.OrientationDue = true
		reply := e.Respond(tr)
		assert.Contains(t, []string{"I didn't hear that clearly", "Could you please repeat that?"}, reply.Text)
		assert.Equal(t, CategoryClarification, reply.Category)
	}
}

func TestRespond_OrientationOverridesEverything(t *testing.T) {
	e := newEngine(t)
	tr := turn(sampleProfile(t), "hi, emergency help")
	tr.Mood = mood.State{Mood: mood.Urgent, Stress: 9}
	tr.Intervention = mood.InterventionEmergencyContact
	tr.OrientationDue = true

	reply := e.Respond(tr)
	assert.Equal(t, CategoryOrientation, reply.Category)
	assert.Contains(t, reply.Text, "Saksham Malhotra")
	assert.Contains(t, reply.Text, "28 year old")
	assert.Contains(t, reply.Text, "123 Wellness Lane, Health City, CA")
	assert.Contains(t, reply.Text, "Naveen Malhotra (Father) at +1 (555) 987-6543")
	assert.Contains(t, reply.Text, "12:30 PM on Monday, January 15")
}

func TestRespond_EmergencyBeatsGreeting(t *testing.T) {
	e := newEngine(t)
	p := sampleProfile(t)
	for i := 0; i < 20; i++ {
		tr := turn(p, "hi, emergency help")
		tr.Mood = mood.State{Mood: mood.Urgent, Stress: 3}
		reply := e.Respond(tr)
		assert.Equal(t, CategoryEmergency, reply.Category)
		assert.Contains(t, reply.Text, "Naveen Malhotra (Father)")
	}
}

func TestRespond_UrgentMoodIsEmergency(t *testing.T) {
	e := newEngine(t)
	tr := turn(sampleProfile(t), "my leg")
	tr.Mood = mood.State{Mood: mood.Urgent, Stress: 3}
	assert.Equal(t, CategoryEmergency, e.Respond(tr).Category)
}

func TestRespond_Identity(t *testing.T) {
	e := newEngine(t)
	reply := e.Respond(turn(sampleProfile(t), "Who am I?"))
	assert.Equal(t, CategoryIdentity, reply.Category)
	assert.Contains(t, reply.Text, "Saksham Malhotra")
	assert.Contains(t, reply.Text, "28")
	assert.Contains(t, reply.Text, "123 Wellness Lane, Health City")
}

func TestRespond_Location(t *testing.T) {
	e := newEngine(t)
	p := sampleProfile(t)
	for i := 0; i < 10; i++ {
		reply := e.Respond(turn(p, "where am i"))
		assert.Equal(t, CategoryLocation, reply.Category)
		assert.Contains(t, reply.Text, "123 Wellness Lane")
		assert.Contains(t, reply.Text, "Health City")
	}
}

func TestRespond_AgentIdentity(t *testing.T) {
	e := newEngine(t)
	reply := e.Respond(turn(sampleProfile(t), "who are you"))
	assert.Equal(t, AgentDescription, reply.Text)
}

func TestRespond_Interventions(t *testing.T) {
	p := sampleProfile(t)

	t.Run("emergency contact", func(t *testing.T) {
		e := newEngine(t)
		tr := turn(p, "I feel sad")
		tr.Intervention = mood.InterventionEmergencyContact
		reply := e.Respond(tr)
		assert.Equal(t, CategoryIntervention, reply.Category)
		assert.Equal(t, mood.InterventionEmergencyContact, reply.Intervention)
		assert.True(t, strings.HasPrefix(reply.Text, "You seem very stressed. "))
		assert.Contains(t, reply.Text, "Naveen Malhotra (Father)")
	})

	t.Run("music plays", func(t *testing.T) {
		player := &fakePlayer{available: true}
		e := newEngine(t, WithPlayer(player), WithRandom(fixedSource{index: 4}))
		tr := turn(p, "I feel sad")
		tr.Intervention = mood.InterventionMusic
		reply := e.Respond(tr)
		assert.Equal(t, mood.InterventionMusic, reply.Intervention)
		assert.Equal(t, "I'm playing some Classical for you", reply.Text)
		assert.True(t, player.IsPlaying())
	})

	t.Run("music unavailable falls back to breathing", func(t *testing.T) {
		player := &fakePlayer{}
		e := newEngine(t, WithPlayer(player))
		tr := turn(p, "I feel sad")
		tr.Intervention = mood.InterventionMusic
		reply := e.Respond(tr)
		assert.Equal(t, 1, player.plays)
		assert.Equal(t, mood.InterventionBreathing, reply.Intervention)
		catalog, _ := DefaultCatalog()
		assert.Contains(t, catalog[PhrasesBreathing], reply.Text)
	})

	t.Run("family reassurance", func(t *testing.T) {
		e := newEngine(t, WithRandom(fixedSource{index: 0}))
		tr := turn(p, "I feel sad")
		tr.Intervention = mood.InterventionFamilyReassurance
		reply := e.Respond(tr)
		assert.Equal(t, "Would you like to talk about Naveen Malhotra?", reply.Text)
	})

	t.Run("comfort object", func(t *testing.T) {
		e := newEngine(t, WithRandom(fixedSource{index: 1}))
		tr := turn(p, "I feel sad")
		tr.Intervention = mood.InterventionComfortObject
		reply := e.Respond(tr)
		assert.Equal(t, "Let's get your blue blanket, that might help", reply.Text)
	})

	t.Run("favorite activity", func(t *testing.T) {
		e := newEngine(t, WithRandom(fixedSource{index: 2}))
		tr := turn(p, "I feel sad")
		tr.Intervention = mood.InterventionFavoriteActivity
		reply := e.Respond(tr)
		assert.Equal(t, "How about Chess for a while? It might be enjoyable", reply.Text)
	})

	t.Run("none does not intervene", func(t *testing.T) {
		e := newEngine(t)
		tr := turn(p, "hello")
		tr.Intervention = mood.InterventionNone
		assert.Equal(t, CategoryGreeting, e.Respond(tr).Category)
	})
}

func TestRespond_MusicControl(t *testing.T) {
	p := sampleProfile(t)
	player := &fakePlayer{available: true, volume: 0.5}
	e := newEngine(t, WithPlayer(player))

	reply := e.Respond(turn(p, "play music please"))
	assert.Equal(t, CategoryMusicControl, reply.Category)
	assert.True(t, player.IsPlaying())

	assert.Equal(t, VolumeIncreased, e.Respond(turn(p, "a bit louder")).Text)
	assert.InDelta(t, 0.7, player.volume, 1e-9)

	e.Respond(turn(p, "volume up"))
	e.Respond(turn(p, "volume up"))
	assert.InDelta(t, 1.0, player.volume, 1e-9)

	assert.Equal(t, VolumeDecreased, e.Respond(turn(p, "a little quieter")).Text)
	assert.InDelta(t, 0.8, player.volume, 1e-9)

	assert.Equal(t, MusicStopped, e.Respond(turn(p, "stop music")).Text)
	assert.False(t, player.IsPlaying())

	player.volume = 0.1
	e.Respond(turn(p, "decrease volume"))
	assert.Equal(t, 0.0, player.volume)
}

func TestRespond_PlayWithoutMusic(t *testing.T) {
	e := newEngine(t)
	assert.Equal(t, NoMusicMessage, e.Respond(turn(sampleProfile(t), "play music")).Text)
}

func TestRespond_KeywordCategories(t *testing.T) {
	tests := []struct {
		utterance string
		expected  Category
	}{
		{"I forgot something", CategoryMemory},
		{"I'm nervous", CategoryComfort},
		{"I'm bored", CategoryActivity},
		{"good morning", CategoryGreeting},
		{"hello there", CategoryGreeting},
		{"what time is it", CategoryTime},
		{"I'm thirsty", CategoryFood},
		{"where is my daughter", CategoryFamily},
		{"I have anxiety", CategoryReassurance},
		{"how is my blood pressure", CategoryHealth},
		{"let's play chess", CategoryHobby},
		{"where is the dog", CategoryPet},
		{"I need to go to the office", CategoryWork},
		{"the sky is blue", CategoryDefault},
		{"call my son", CategoryEmergency},
		{"what is this place", CategoryLocation},
		{"what is my name", CategoryIdentity},
	}
	e := newEngine(t)
	p := sampleProfile(t)
	for _, tt := range tests {
		reply := e.Respond(turn(p, tt.utterance))
		assert.Equal(t, tt.expected, reply.Category, tt.utterance)
		assert.NotEmpty(t, reply.Text, tt.utterance)
	}
}

func TestRespond_PriorityOrder(t *testing.T) {
	tests := []struct {
		utterance string
		expected  Category
	}{
		{"who am i and where am i", CategoryIdentity},
		{"where am i, who are you", CategoryLocation},
		{"I remember my dog", CategoryMemory},
		{"hello, I'm hungry", CategoryGreeting},
		{"my family and my job", CategoryFamily},
		{"is it time to eat", CategoryTime},
	}
	e := newEngine(t)
	p := sampleProfile(t)
	for _, tt := range tests {
		assert.Equal(t, tt.expected, e.Respond(turn(p, tt.utterance)).Category, tt.utterance)
	}
}

func TestRespond_Health(t *testing.T) {
	e := newEngine(t)
	p := sampleProfile(t)

	assert.Equal(t, VitalsNormal, e.Respond(turn(p, "check my vitals")).Text)

	tr := turn(p, "check my vitals")
	tr.Alerts = []health.Alert{health.AlertHighBloodPressure}
	reply := e.Respond(tr)
	assert.Equal(t, CategoryHealth, reply.Category)
	assert.Contains(t, reply.Text, "high blood pressure")
}

func TestRespond_Pet(t *testing.T) {
	e := newEngine(t, WithRandom(fixedSource{index: 0}))
	assert.Equal(t, "Would you like to spend time with your dog?", e.Respond(turn(sampleProfile(t), "my dog")).Text)
	assert.Equal(t, NoPetMessage, e.Respond(turn(minimalProfile(t), "my dog")).Text)
}

func TestRespond_Medication(t *testing.T) {
	e := newEngine(t)
	tr := turn(sampleProfile(t), "the sky is blue")
	tr.MedicationReminders = []string{"Donepezil", "Memantine"}
	reply := e.Respond(tr)
	assert.Equal(t, CategoryMedication, reply.Category)
	assert.Equal(t, "Remember to take your Donepezil, Memantine", reply.Text)

	tr.Utterance = "hello"
	assert.Equal(t, CategoryGreeting, e.Respond(tr).Category)
}

func TestRespond_Default(t *testing.T) {
	p := sampleProfile(t)

	named := newEngine(t, WithRandom(fixedSource{index: 1, f: 0.29}))
	assert.Equal(t, "What would you like to do, Saksham?", named.Respond(turn(p, "the sky is blue")).Text)

	generic := newEngine(t, WithRandom(fixedSource{index: 3, f: 0.3}))
	assert.Equal(t, "I'm listening", generic.Respond(turn(p, "the sky is blue")).Text)
}

func TestRespond_Greeting_TimeOfDay(t *testing.T) {
	e := newEngine(t, WithRandom(fixedSource{index: 1}))
	tr := turn(sampleProfile(t), "hey")
	tr.Now = time.Date(2024, 1, 15, 19, 0, 0, 0, time.UTC)
	assert.Equal(t, "Good evening, how are you feeling?", e.Respond(tr).Text)
}

func TestRespond_MissingOptionalFieldsNeverLeakSlots(t *testing.T) {
	p := minimalProfile(t)
	utterances := []string{
		"who am i", "where am i", "help me", "play music", "I forgot", "scared",
		"bored", "hello", "what time", "food", "family", "lost", "health",
		"hobby", "dog", "work", "blue sky",
	}
	interventions := []mood.Intervention{
		mood.InterventionNone, mood.InterventionFamilyReassurance, mood.InterventionComfortObject,
		mood.InterventionFavoriteActivity, mood.InterventionMusic, mood.InterventionBreathing,
	}
	player := &fakePlayer{available: true}
	for seed := uint64(0); seed < 5; seed++ {
		e := newEngine(t, WithRandom(random.New(seed)), WithPlayer(player))
		for _, u := range utterances {
			for _, iv := range interventions {
				tr := turn(p, u)
				tr.Intervention = iv
				reply := e.Respond(tr)
				assert.NotContains(t, reply.Text, "{", u)
				assert.NotContains(t, reply.Text, "}", u)
				assert.NotEmpty(t, reply.Text, u)
			}
		}
	}
}

func TestRespond_MissingLocationUsesDefault(t *testing.T) {
	e := newEngine(t, WithRandom(fixedSource{index: 0}))
	assert.Equal(t, "You're at home right now", e.Respond(turn(minimalProfile(t), "where am i")).Text)
}

func TestCategories_Order(t *testing.T) {
	e := newEngine(t)
	assert.Equal(t, []Category{
		CategoryOrientation, CategoryIdentity, CategoryLocation, CategoryAgentIdentity,
		CategoryEmergency, CategoryIntervention, CategoryMusicControl, CategoryMemory,
		CategoryComfort, CategoryActivity, CategoryGreeting, CategoryTime, CategoryFood,
		CategoryFamily, CategoryReassurance, CategoryHealth, CategoryHobby, CategoryPet,
		CategoryWork, CategoryMedication, CategoryDefault,
	}, e.Categories())
}
