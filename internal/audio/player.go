// Package audio plays music and synthesized speech through an external
// command line player.
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"alzie-companion/internal/platform/random"
)

// DefaultCommand plays one file and exits. {volume} is 0-100, {file} the
// path to play.
const DefaultCommand = "ffplay -nodisp -autoexit -loglevel quiet -volume {volume} {file}"

// DefaultVolume is the volume a new player starts with.
const DefaultVolume = 0.5

var musicExtensions = map[string]bool{".mp3": true, ".wav": true, ".ogg": true}

// Player plays one music track at a time in the background and blocking
// clips in the foreground. Volume changes apply to the next track.
type Player struct {
	dir     string
	command []string
	rand    random.Source
	logger  zerolog.Logger

	mu      sync.Mutex
	volume  float64
	cmd     *exec.Cmd
	current string
}

func NewPlayer(dir, command string, src random.Source, logger zerolog.Logger) *Player {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	if src == nil {
		src = random.NewTimeSeeded()
	}
	return &Player{
		dir:     dir,
		command: strings.Fields(command),
		rand:    src,
		volume:  DefaultVolume,
		logger:  logger.With().Str("component", "audio_player").Logger(),
	}
}

// Tracks lists the playable files of the music directory, sorted by name.
func (p *Player) Tracks() []string {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil
	}
	var tracks []string
	for _, e := range entries {
		if e.IsDir() || !musicExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		tracks = append(tracks, e.Name())
	}
	sort.Strings(tracks)
	return tracks
}

// Play starts track in the background, replacing any track already
// playing. An empty track picks one at random; a number n selects
// "File<n>.mp3". It reports whether playback started.
func (p *Player) Play(track string) bool {
	path, err := p.resolve(track)
	if err != nil {
		p.logger.Warn().Err(err).Str("track", track).Msg("no music to play")
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	cmd := exec.Command(p.command[0], p.args(path, p.volume)...)
	if err := cmd.Start(); err != nil {
		p.logger.Warn().Err(err).Str("track", path).Msg("start music player")
		return false
	}
	p.cmd = cmd
	p.current = path
	p.logger.Info().Str("track", path).Float64("volume", p.volume).Msg("music started")

	go p.wait(cmd)
	return true
}

// Stop ends the current track, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// SetVolume clamps level to [0, 1].
func (p *Player) SetVolume(level float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = math.Max(0, math.Min(1, level))
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

// Current returns the path of the playing track, empty when idle.
func (p *Player) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// PlayFile plays path in the foreground and returns when playback ends or
// ctx is cancelled. It does not interrupt background music.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, p.command[0], p.args(path, p.Volume())...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (p *Player) resolve(track string) (string, error) {
	track = strings.TrimSpace(track)
	if track == "" {
		tracks := p.Tracks()
		if len(tracks) == 0 {
			return "", errors.New("music directory has no tracks")
		}
		return filepath.Join(p.dir, random.Pick(p.rand, tracks)), nil
	}
	if _, err := strconv.Atoi(track); err == nil {
		track = "File" + track + ".mp3"
	}
	path := filepath.Join(p.dir, filepath.Base(track))
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

func (p *Player) args(path string, volume float64) []string {
	vol := strconv.Itoa(int(math.Round(volume * 100)))
	args := make([]string, 0, len(p.command)-1)
	for _, a := range p.command[1:] {
		a = strings.ReplaceAll(a, "{file}", path)
		a = strings.ReplaceAll(a, "{volume}", vol)
		args = append(args, a)
	}
	return args
}

func (p *Player) wait(cmd *exec.Cmd) {
	err := cmd.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != cmd {
		return
	}
	p.cmd = nil
	p.current = ""
	if err != nil {
		p.logger.Debug().Err(err).Msg("music player exited")
	}
}

func (p *Player) stopLocked() {
	if p.cmd == nil {
		return
	}
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil
	p.current = ""
}
