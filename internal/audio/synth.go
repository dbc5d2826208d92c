// Package audio renders the selection stream locally so patches can be
// auditioned without the hardware module attached.
package audio

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate   = 44100
	channelCount = 2 // stereo
	bitDepth     = 2 // 16-bit

	drumChannel = 9
)

// WaveType represents different oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSawtooth
	WaveTriangle
	WaveNoise
)

// familyWaves maps the sixteen General MIDI program families (pc / 8) to an
// oscillator shape.
var familyWaves = [16]WaveType{
	WaveSine,     // piano
	WaveTriangle, // chromatic percussion
	WaveSquare,   // organ
	WaveTriangle, // guitar
	WaveSine,     // bass
	WaveSawtooth, // strings
	WaveSawtooth, // ensemble
	WaveSawtooth, // brass
	WaveSquare,   // reed
	WaveSine,     // pipe
	WaveSquare,   // synth lead
	WaveTriangle, // synth pad
	WaveSawtooth, // synth effects
	WaveTriangle, // ethnic
	WaveNoise,    // percussive
	WaveNoise,    // sound effects
}

// WaveForProgram picks the oscillator for a zero-based program number.
func WaveForProgram(program uint8) WaveType {
	return familyWaves[(program&0x7F)/8]
}

// Voice represents a single playing note
type Voice struct {
	note      uint8
	channel   uint8
	velocity  uint8
	wave      WaveType
	frequency float64
	phase     float64
	noise     uint32
	envelope  float64 // 0-1
	releasing bool
	active    bool
}

// Synth is a small polyphonic synthesizer driven by raw MIDI messages.
type Synth struct {
	mu           sync.Mutex
	otoCtx       *oto.Context
	player       *oto.Player
	voices       []*Voice
	maxVoices    int
	masterVolume float64
	waveTypes    [16]WaveType // per MIDI channel, set by program change
}

func newSynth() *Synth {
	s := &Synth{
		maxVoices:    32,
		masterVolume: 0.3,
	}
	s.waveTypes[drumChannel] = WaveNoise
	return s
}

// NewSynth opens the default audio device and starts streaming.
func NewSynth() (*Synth, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	s := newSynth()
	s.otoCtx = otoCtx
	s.player = otoCtx.NewPlayer(&synthReader{synth: s})
	s.player.Play()

	return s, nil
}

// Send interprets a channel voice message. Unknown messages are ignored.
func (s *Synth) Send(msg []byte) error {
	if len(msg) < 2 {
		return nil
	}
	channel := msg[0] & 0x0F

	switch msg[0] & 0xF0 {
	case 0x90:
		if len(msg) >= 3 {
			s.NoteOn(channel, msg[1], msg[2])
		}
	case 0x80:
		s.NoteOff(channel, msg[1])
	case 0xC0:
		s.ProgramChange(channel, msg[1])
	case 0xB0:
		// all notes off
		if len(msg) >= 3 && msg[1] == 123 {
			s.AllNotesOff()
		}
	}
	return nil
}

// ProgramChange selects the oscillator for a channel. The drum channel always
// plays noise.
func (s *Synth) ProgramChange(channel, program uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := channel & 0x0F
	if ch == drumChannel {
		return
	}
	s.waveTypes[ch] = WaveForProgram(program)
}

// Wave reports the oscillator currently assigned to a channel.
func (s *Synth) Wave(channel uint8) WaveType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waveTypes[channel&0x0F]
}

// synthReader implements io.Reader for continuous audio generation
type synthReader struct {
	synth *Synth
}

func (r *synthReader) Read(buf []byte) (int, error) {
	s := r.synth
	s.mu.Lock()
	defer s.mu.Unlock()

	numSamples := len(buf) / (channelCount * bitDepth)

	for i := 0; i < numSamples; i++ {
		var sample float64

		for _, v := range s.voices {
			if v == nil || !v.active {
				continue
			}

			velocityScale := float64(v.velocity) / 127.0
			sample += v.next() * velocityScale * v.envelope * 0.2

			if v.releasing {
				v.envelope *= 0.9995
				if v.envelope < 0.001 {
					v.active = false
				}
			} else if v.envelope < 1.0 {
				v.envelope += 0.001
				if v.envelope > 1.0 {
					v.envelope = 1.0
				}
			}
		}

		sample *= s.masterVolume
		if sample > 1.0 {
			sample = 1.0
		} else if sample < -1.0 {
			sample = -1.0
		}

		sampleInt := int16(sample * 32767)

		idx := i * channelCount * bitDepth
		buf[idx] = byte(sampleInt)
		buf[idx+1] = byte(sampleInt >> 8)
		buf[idx+2] = byte(sampleInt)
		buf[idx+3] = byte(sampleInt >> 8)
	}

	return len(buf), nil
}

// next produces one oscillator sample and advances the phase.
func (v *Voice) next() float64 {
	var out float64
	if v.wave == WaveNoise {
		// xorshift32
		v.noise ^= v.noise << 13
		v.noise ^= v.noise >> 17
		v.noise ^= v.noise << 5
		out = float64(v.noise)/float64(math.MaxUint32)*2 - 1
	} else {
		out = generateWave(v.wave, v.phase)
	}

	v.phase += v.frequency / sampleRate
	if v.phase >= 1.0 {
		v.phase -= 1.0
	}
	return out
}

func generateWave(waveType WaveType, phase float64) float64 {
	switch waveType {
	case WaveSquare:
		if phase < 0.5 {
			return 0.8
		}
		return -0.8
	case WaveSawtooth:
		return 2*phase - 1
	case WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// NoteOn triggers a new note
func (s *Synth) NoteOn(channel, note, velocity uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if velocity == 0 {
		s.noteOffLocked(channel, note)
		return
	}

	var voice *Voice
	for _, v := range s.voices {
		if v != nil && !v.active {
			voice = v
			break
		}
	}

	if voice == nil {
		if len(s.voices) < s.maxVoices {
			voice = &Voice{}
			s.voices = append(s.voices, voice)
		} else {
			// steal the oldest
			voice = s.voices[0]
		}
	}

	voice.note = note
	voice.channel = channel
	voice.velocity = velocity
	voice.wave = s.waveTypes[channel&0x0F]
	voice.frequency = midiNoteToFreq(note)
	voice.phase = 0
	voice.noise = 0x9E3779B9 ^ uint32(note)
	voice.envelope = 0
	voice.releasing = false
	voice.active = true
}

// NoteOff releases a note
func (s *Synth) NoteOff(channel, note uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteOffLocked(channel, note)
}

func (s *Synth) noteOffLocked(channel, note uint8) {
	for _, v := range s.voices {
		if v != nil && v.active && v.note == note && v.channel == channel && !v.releasing {
			v.releasing = true
			break
		}
	}
}

// AllNotesOff stops all playing notes
func (s *Synth) AllNotesOff() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.voices {
		if v != nil && v.active {
			v.releasing = true
		}
	}
}

// ActiveVoices counts voices that are sounding or releasing.
func (s *Synth) ActiveVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, v := range s.voices {
		if v != nil && v.active {
			n++
		}
	}
	return n
}

// Close silences the synth. As of oto v3.4 players need no explicit close.
func (s *Synth) Close() error {
	s.AllNotesOff()
	if s.player != nil {
		s.player.Pause()
	}
	return nil
}

// midiNoteToFreq converts a MIDI note number to frequency in Hz
func midiNoteToFreq(note uint8) float64 {
	// A4 (note 69) = 440 Hz
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}
