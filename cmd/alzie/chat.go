package main

import (
	"context"
	"fmt"
	"os"

	"alzie-companion/internal/audio"
	"alzie-companion/internal/config"
	"alzie-companion/internal/platform/random"
	"alzie-companion/internal/session"
	"alzie-companion/internal/voice"
)

// runChat holds one conversation with the configured patient on this
// machine's terminal or microphone and speakers.
func runChat(ctx context.Context) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	cfg := a.cfg

	profile, err := a.store.Get(cfg.PatientID)
	if err != nil {
		fmt.Println("Critical error: Could not load patient data")
		return err
	}
	a.watchPatients(ctx)

	player := audio.NewPlayer(cfg.MusicDir, cfg.PlayerCmd, random.NewTimeSeeded(), a.logger)
	defer player.Stop()

	sinks := []session.Sink{session.NewFileSink(cfg.SessionLog)}
	if cfg.DatabaseURL != "" {
		db, err := openDB(ctx, cfg.DatabaseURL, 1, a.logger)
		if err != nil {
			a.logger.Warn().Err(err).Msg("continuing without database")
		} else {
			defer db.Close()
			sinks = append(sinks, session.NewRepository(db))
		}
	}

	var v session.Voice
	switch cfg.VoiceMode {
	case config.VoiceModeSpeech:
		v = voice.NewSpeech(voice.SpeechConfig{
			Recorder: voice.NewCommandRecorder(cfg.RecorderCmd),
			STT:      voice.NewWhisperClient(cfg.STTURL, a.logger),
			TTS:      a.ttsClient(),
			VoiceID:  cfg.TTSVoice,
			Playback: player,
			Timeout:  cfg.ListenTimeout,
			Echo:     os.Stdout,
		}, a.logger)
	default:
		v = voice.NewConsole(os.Stdin, os.Stdout, cfg.ListenTimeout)
	}

	opts := append(a.sessionOptions(sinks...), session.WithPlayer(player))
	c, err := session.NewController(profile, opts...)
	if err != nil {
		return err
	}

	fmt.Println("Welcome to AlziE, your personalized Alzheimer's support companion")
	fmt.Println("You can speak to me anytime. Say 'goodbye' when you'd like to end our conversation")

	log, err := c.Run(ctx, v)
	fmt.Println("\nSession Summary:")
	fmt.Println(log.Summary())
	return err
}
