package patient

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// sampleColumns lists the sample record in file order.
var sampleColumns = [][2]string{
	{"patient_id", "SM1001"},
	{"first_name", "Saksham"},
	{"last_name", "Malhotra"},
	{"date_of_birth", "1995-08-15"},
	{"age", "28"},
	{"gender", "Male"},
	{"blood_type", "A+"},
	{"primary_language", "Hindi"},
	{"secondary_language", "English"},
	{"father_name", "Naveen Malhotra"},
	{"mother_name", "Renu Malhotra"},
	{"address", "123 Wellness Lane"},
	{"city", "Health City"},
	{"state", "CA"},
	{"zip_code", "90210"},
	{"country", "USA"},
	{"primary_phone", "+1 (555) 123-4567"},
	{"emergency_contact1", "Naveen Malhotra"},
	{"emergency_relation1", "Father"},
	{"emergency_phone1", "+1 (555) 987-6543"},
	{"emergency_contact2", "Dr. Amit Sharma"},
	{"emergency_relation2", "Physician"},
	{"emergency_phone2", "+1 (555) 456-7890"},
	{"allergies", "None"},
	{"current_medications", "Multivitamin, Omega-3"},
	{"medical_history", "Asthma (childhood)"},
	{"exercise_type", "Swimming, Yoga"},
	{"favorite_food1", "Butter Chicken"},
	{"favorite_food2", "Palak Paneer"},
	{"favorite_food3", "Biryani"},
	{"preferred_tea_type", "Assam"},
	{"hobby1", "Reading"},
	{"hobby2", "Photography"},
	{"hobby3", "Chess"},
	{"music_preference", "Classical"},
	{"pet_ownership", "Yes"},
	{"pet_type", "Dog"},
	{"occupation", "Software Engineer"},
	{"employer", "Tech Solutions Inc"},
	{"work_schedule", "9am-5pm"},
	{"comfort_items", "blue blanket, family photo album"},
	{"preserved_memories", "your trip to Shimla, your graduation day"},
	{"cognitive_strengths", "chess openings, old Hindi songs"},
	{"daily_routine", "morning tea, afternoon walk, evening prayer"},
	{"blood_pressure", "120/80"},
	{"resting_heart_rate", "68"},
	{"cholesterol_level", "180"},
	{"glucose_level", "92"},
	{"last_updated", "2023-11-20"},
}

// WriteSample writes a single-patient profile file to path.
func WriteSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create patient data dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create patient data: %w", err)
	}
	defer f.Close()

	header := make([]string, len(sampleColumns))
	record := make([]string, len(sampleColumns))
	for i, c := range sampleColumns {
		header[i], record[i] = c[0], c[1]
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll([][]string{header, record}); err != nil {
		return fmt.Errorf("write sample patient data: %w", err)
	}
	return f.Close()
}
