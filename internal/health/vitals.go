// Package health turns patient vitals into alerts and simulates medication
// reminders.
package health

import (
	"strconv"
	"strings"

	"alzie-companion/internal/patient"
)

type Alert string

const (
	AlertHighBloodPressure Alert = "high blood pressure"
	AlertElevatedHeartRate Alert = "elevated heart rate"
	AlertHighGlucose       Alert = "high glucose level"
	AlertHighCholesterol   Alert = "high cholesterol"
)

// Thresholds. A reading strictly above the limit raises the alert.
const (
	MaxSystolic    = 140
	MaxDiastolic   = 90
	MaxHeartRate   = 100
	MaxGlucose     = 126
	MaxCholesterol = 200
)

// Readings used when a vital is not recorded.
const (
	defaultBloodPressure = "120/80"
	defaultHeartRate     = 72
	defaultGlucose       = 99
	defaultCholesterol   = 150
)

// CheckVitals returns the alerts raised by v in a fixed order. A malformed
// reading never raises an alert.
func CheckVitals(v patient.Vitals) []Alert {
	var alerts []Alert

	bp := v.BloodPressure
	if strings.TrimSpace(bp) == "" {
		bp = defaultBloodPressure
	}
	if systolic, diastolic, ok := parseBloodPressure(bp); ok && (systolic > MaxSystolic || diastolic > MaxDiastolic) {
		alerts = append(alerts, AlertHighBloodPressure)
	}
	if hr, ok := parseReading(v.RestingHeartRate, defaultHeartRate); ok && hr > MaxHeartRate {
		alerts = append(alerts, AlertElevatedHeartRate)
	}
	if g, ok := parseReading(v.GlucoseLevel, defaultGlucose); ok && g > MaxGlucose {
		alerts = append(alerts, AlertHighGlucose)
	}
	if c, ok := parseReading(v.CholesterolLevel, defaultCholesterol); ok && c > MaxCholesterol {
		alerts = append(alerts, AlertHighCholesterol)
	}
	return alerts
}

func parseBloodPressure(s string) (systolic, diastolic int, ok bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	systolic, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	diastolic, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return systolic, diastolic, true
}

// parseReading accepts integer and decimal readings.
func parseReading(s string, fallback int) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return float64(fallback), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
