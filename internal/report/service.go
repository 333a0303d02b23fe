package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/signintech/gopdf"

	"alzie-companion/internal/mood"
	"alzie-companion/internal/patient"
	"alzie-companion/internal/session"
)

// DefaultFontPaths are the usual DejaVu Sans locations on Debian and Alpine.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

var (
	ErrNoCaregiver = errors.New("caregiver chat is not configured")
	ErrNoFont      = errors.New("no usable font for PDF report")
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte, caption string) error
}

// Service keeps the caregiver informed: immediate alerts during a session
// and a PDF report when it ends.
type Service struct {
	tgClient        TelegramClient
	caregiverChatID int64
	fontPaths       []string
	now             func() time.Time
	logger          zerolog.Logger
}

func NewService(tg TelegramClient, caregiverChatID int64, fontPaths []string, logger zerolog.Logger) *Service {
	if len(fontPaths) == 0 {
		fontPaths = DefaultFontPaths
	}
	return &Service{
		tgClient:        tg,
		caregiverChatID: caregiverChatID,
		fontPaths:       fontPaths,
		now:             time.Now,
		logger:          logger.With().Str("component", "report").Logger(),
	}
}

// NotifyEmergency tells the caregiver what the patient said and how to
// reach the emergency contact.
func (s *Service) NotifyEmergency(ctx context.Context, p *patient.Profile, utterance string, state mood.State) error {
	if s.caregiverChatID == 0 {
		return ErrNoCaregiver
	}
	return s.tgClient.SendMessage(ctx, s.caregiverChatID, EmergencyText(p, utterance, state, s.now()))
}

// EmergencyText is the alert sent to the caregiver.
func EmergencyText(p *patient.Profile, utterance string, state mood.State, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "AlziE alert for %s (%s)\n", p.FullName(), p.ID)
	fmt.Fprintf(&b, "Time: %s\n", at.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Patient said: %q\n", utterance)
	fmt.Fprintf(&b, "Mood: %s, stress %d/%d\n", state.Mood, state.Stress, mood.MaxStress)
	fmt.Fprintf(&b, "Emergency contact: %s (%s) at %s", p.Emergency.Name, p.Emergency.Relation, p.Emergency.Phone)
	return b.String()
}

// SendSessionReport renders the session as a PDF and sends it to the
// caregiver with the session summary as caption.
func (s *Service) SendSessionReport(ctx context.Context, p *patient.Profile, log session.Log) error {
	if s.caregiverChatID == 0 {
		return ErrNoCaregiver
	}

	s.logger.Info().Str("session_id", log.ID.String()).Msg("generating session report")
	data, err := s.BuildPDF(p, log)
	if err != nil {
		return err
	}

	fileName := fmt.Sprintf("session_%s_%s.pdf", p.ID, log.StartTime.Format("20060102_1504"))
	if err := s.tgClient.SendDocument(ctx, s.caregiverChatID, fileName, data, log.Summary()); err != nil {
		return fmt.Errorf("send session report: %w", err)
	}
	s.logger.Info().Str("session_id", log.ID.String()).Msg("session report sent")
	return nil
}

const (
	pageTop    = 40.0
	pageLeft   = 40.0
	pageBottom = 800.0
	textWidth  = 515.0
)

// BuildPDF renders the session report.
func (s *Service) BuildPDF(p *patient.Profile, log session.Log) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := s.loadFont(pdf); err != nil {
		return nil, err
	}
	w := &writer{pdf: pdf}

	w.heading(20, "AlziE session report")
	w.gap(10)

	w.font(12)
	w.line(fmt.Sprintf("Patient: %s (%s), age %d", p.FullName(), p.ID, p.Age))
	w.line(fmt.Sprintf("Started: %s", log.StartTime.Format("2006-01-02 15:04")))
	if log.EndTime != nil {
		w.line(fmt.Sprintf("Ended: %s", log.EndTime.Format("2006-01-02 15:04")))
	}
	w.paragraph(log.Summary())
	w.gap(10)

	if len(log.StressLevels) > 1 {
		w.heading(14, "Stress over the session")
		w.stressChart(log.StressLevels)
		w.gap(10)
	}

	if len(log.Interventions) > 0 {
		w.heading(14, "Interventions")
		w.font(11)
		for _, in := range log.Interventions {
			w.line("- " + strings.ReplaceAll(string(in), "_", " "))
		}
		w.gap(10)
	}

	w.heading(14, "Conversation")
	w.font(10)
	for _, it := range log.Interactions {
		w.paragraph(fmt.Sprintf("[%s] Patient (%s, stress %d): %s", it.Timestamp.Format("15:04:05"), it.Mood, it.StressLevel, it.Input))
		w.paragraph("AlziE: " + it.Response)
		w.gap(4)
	}

	if w.err != nil {
		return nil, fmt.Errorf("render PDF: %w", w.err)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range s.fontPaths {
		err := pdf.AddTTFFont("DejaVu", path)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("%w: tried %s: %v", ErrNoFont, strings.Join(s.fontPaths, ", "), lastErr)
}

// writer lays out text top to bottom, starting new pages as needed. The
// first error stops all further output.
type writer struct {
	pdf  *gopdf.GoPdf
	size float64
	err  error
}

func (w *writer) font(size float64) {
	if w.err != nil {
		return
	}
	w.size = size
	w.err = w.pdf.SetFont("DejaVu", "", size)
}

func (w *writer) heading(size float64, text string) {
	w.font(size)
	w.line(text)
	w.gap(4)
}

func (w *writer) line(text string) {
	if w.err != nil {
		return
	}
	w.ensureRoom(w.size + 4)
	w.pdf.SetX(pageLeft)
	if err := w.pdf.Cell(nil, text); err != nil {
		w.err = err
		return
	}
	w.pdf.Br(w.size + 4)
}

func (w *writer) paragraph(text string) {
	if w.err != nil || text == "" {
		return
	}
	lines, err := w.pdf.SplitText(text, textWidth)
	if err != nil {
		w.err = err
		return
	}
	for _, l := range lines {
		w.line(l)
	}
}

func (w *writer) gap(h float64) {
	if w.err == nil {
		w.pdf.Br(h)
	}
}

func (w *writer) ensureRoom(h float64) {
	if w.pdf.GetY() == 0 {
		w.pdf.SetY(pageTop)
	}
	if w.pdf.GetY()+h > pageBottom {
		w.pdf.AddPage()
		w.pdf.SetY(pageTop)
	}
}

const (
	chartHeight = 100.0
	chartWidth  = 400.0
)

// stressChart draws stress levels as a polyline on a 0-10 scale.
func (w *writer) stressChart(levels []int) {
	if w.err != nil {
		return
	}
	w.ensureRoom(chartHeight + 20)
	top := w.pdf.GetY()
	bottom := top + chartHeight

	w.pdf.SetLineWidth(0.5)
	w.pdf.Line(pageLeft, top, pageLeft, bottom)
	w.pdf.Line(pageLeft, bottom, pageLeft+chartWidth, bottom)

	step := chartWidth / float64(len(levels)-1)
	y := func(level int) float64 {
		return bottom - float64(level)/float64(mood.MaxStress)*chartHeight
	}
	w.pdf.SetLineWidth(1.5)
	for i := 1; i < len(levels); i++ {
		w.pdf.Line(pageLeft+float64(i-1)*step, y(levels[i-1]), pageLeft+float64(i)*step, y(levels[i]))
	}
	w.pdf.SetY(bottom + 10)
}
