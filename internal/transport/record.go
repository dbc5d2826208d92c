package transport

import (
	"errors"
	"fmt"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	recordTicksPerQuarter = 960
	recordBPM             = 120.0
)

// Recorder forwards messages to another transport and keeps a timestamped
// copy, written as a format 0 Standard MIDI File on Close.
type Recorder struct {
	next  Transport
	path  string
	now   func() time.Time
	start time.Time
	track smf.Track
	last  uint32
}

// NewRecorder records everything sent through next into path. next may be nil
// to only record.
func NewRecorder(next Transport, path string) *Recorder {
	r := &Recorder{next: next, path: path, now: time.Now}
	r.start = r.now()
	r.track.Add(0, smf.MetaTempo(recordBPM))
	return r
}

func (r *Recorder) Send(msg []byte) error {
	if r.next != nil {
		if err := r.next.Send(msg); err != nil {
			return err
		}
	}
	tick := r.ticks(r.now().Sub(r.start))
	if tick < r.last {
		tick = r.last
	}
	cp := make([]byte, len(msg))
	copy(cp, msg)
	r.track.Add(tick-r.last, cp)
	r.last = tick
	return nil
}

// Close writes the file and closes the wrapped transport.
func (r *Recorder) Close() error {
	var nextErr error
	if r.next != nil {
		nextErr = r.next.Close()
	}
	return errors.Join(r.write(), nextErr)
}

func (r *Recorder) write() error {
	r.track.Close(0)

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(recordTicksPerQuarter)
	if err := sm.Add(r.track); err != nil {
		return fmt.Errorf("error adding track: %w", err)
	}
	if err := sm.WriteFile(r.path); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

func (r *Recorder) ticks(d time.Duration) uint32 {
	quarter := time.Duration(float64(time.Minute) / recordBPM)
	return uint32(d * recordTicksPerQuarter / quarter) //nolint:gosec // sessions are far shorter than the uint32 tick range
}
