package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRecorderCommand records one mono 16 kHz WAV clip. {seconds} is
// the clip length, {file} the output path.
const DefaultRecorderCommand = "arecord -q -f S16_LE -r 16000 -c 1 -d {seconds} {file}"

// Recorder captures up to d of microphone audio.
type Recorder interface {
	Record(ctx context.Context, d time.Duration) ([]byte, error)
}

// Playback plays an audio file to completion.
type Playback interface {
	PlayFile(ctx context.Context, path string) error
}

// CommandRecorder records through an external command.
type CommandRecorder struct {
	command []string
}

func NewCommandRecorder(command string) *CommandRecorder {
	if strings.TrimSpace(command) == "" {
		command = DefaultRecorderCommand
	}
	return &CommandRecorder{command: strings.Fields(command)}
}

func (r *CommandRecorder) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	f, err := os.CreateTemp("", "alzie-listen-*.wav")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	seconds := strconv.Itoa(max(1, int(d.Round(time.Second)/time.Second)))
	args := make([]string, 0, len(r.command)-1)
	for _, a := range r.command[1:] {
		a = strings.ReplaceAll(a, "{file}", path)
		a = strings.ReplaceAll(a, "{seconds}", seconds)
		args = append(args, a)
	}

	if err := exec.CommandContext(ctx, r.command[0], args...).Run(); err != nil {
		return nil, fmt.Errorf("record audio: %w", err)
	}
	return os.ReadFile(path)
}

// Speech listens through a recorder and STT service and speaks through a
// TTS service and playback. Every reply is also echoed as text.
type Speech struct {
	recorder Recorder
	stt      STTClient
	tts      TTSClient
	voiceID  string
	playback Playback
	timeout  time.Duration
	echo     io.Writer
	logger   zerolog.Logger
}

type SpeechConfig struct {
	Recorder Recorder
	STT      STTClient
	TTS      TTSClient
	VoiceID  string
	Playback Playback
	Timeout  time.Duration
	Echo     io.Writer
}

func NewSpeech(cfg SpeechConfig, logger zerolog.Logger) *Speech {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultListenTimeout
	}
	if cfg.Echo == nil {
		cfg.Echo = io.Discard
	}
	return &Speech{
		recorder: cfg.Recorder,
		stt:      cfg.STT,
		tts:      cfg.TTS,
		voiceID:  cfg.VoiceID,
		playback: cfg.Playback,
		timeout:  cfg.Timeout,
		echo:     cfg.Echo,
		logger:   logger.With().Str("component", "speech").Logger(),
	}
}

// Listen records one clip and transcribes it. Silence and transcription
// failures yield an empty utterance; only a broken recorder is an error.
func (s *Speech) Listen(ctx context.Context) (string, error) {
	fmt.Fprintln(s.echo, "Listening...")
	audio, err := s.recorder.Record(ctx, s.timeout)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if len(audio) == 0 {
		return "", nil
	}

	text, err := s.stt.Transcribe(ctx, audio)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		s.logger.Warn().Err(err).Msg("speech not recognized")
		return "", nil
	}
	fmt.Fprintf(s.echo, "You said: %s\n", text)
	return strings.ToLower(text), nil
}

// Speak echoes text, then synthesizes and plays it. A synthesis failure
// leaves the text reply in place.
func (s *Speech) Speak(ctx context.Context, text string) error {
	fmt.Fprintf(s.echo, "AlziE: %s\n", text)

	audio, err := s.tts.Synthesize(ctx, text, s.voiceID)
	if err != nil {
		return fmt.Errorf("synthesize reply: %w", err)
	}

	f, err := os.CreateTemp("", "alzie-reply-*.wav")
	if err != nil {
		return err
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(audio); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return s.playback.PlayFile(ctx, path)
}
