// Package transport delivers encoded MIDI messages to their destination:
// a hardware output port, a log, a MIDI file or several of those at once.
package transport

import (
	"errors"
	"fmt"
	"io"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Sender accepts raw MIDI messages. Delivery is fire-and-forget.
type Sender interface {
	Send(msg []byte) error
}

// Transport is a Sender that holds resources.
type Transport interface {
	Sender
	io.Closer
}

var (
	// ErrInvalidDeviceIndex is returned when no output port has the requested index.
	ErrInvalidDeviceIndex = errors.New("invalid MIDI device index")
	// ErrTransportUnavailable is returned when an output port cannot be opened.
	ErrTransportUnavailable = errors.New("MIDI transport unavailable")
)

// Error kinds for ftag.
const (
	KindInvalidDevice ftag.Kind = "invalid_device"
	KindUnavailable   ftag.Kind = "transport_unavailable"
)

// Port sends to a MIDI output port.
type Port struct {
	out  drivers.Out
	send func(msg midi.Message) error
}

// ListPorts returns the output ports of the registered driver.
func ListPorts() midi.OutPorts {
	return midi.GetOutPorts()
}

// WritePortList prints one "index: name" line per port.
func WritePortList(w io.Writer, outs midi.OutPorts) error {
	for i, out := range outs {
		if _, err := fmt.Fprintf(w, "%d: %s\n", i, out.String()); err != nil {
			return err
		}
	}
	return nil
}

// OpenPort opens the output port at position index of ListPorts.
func OpenPort(index int) (*Port, error) {
	return OpenPortFrom(ListPorts(), index)
}

// OpenPortFrom opens outs[index].
func OpenPortFrom(outs midi.OutPorts, index int) (*Port, error) {
	if index < 0 || index >= len(outs) {
		return nil, fault.Wrap(ErrInvalidDeviceIndex,
			fmsg.WithDesc(fmt.Sprintf("device %d of %d", index, len(outs)),
				fmt.Sprintf("There is no MIDI output %d (found %d, see --listdevices)", index, len(outs))),
			ftag.With(KindInvalidDevice),
		)
	}
	return NewPort(outs[index])
}

// NewPort opens out for sending.
func NewPort(out drivers.Out) (*Port, error) {
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fault.Wrap(errors.Join(ErrTransportUnavailable, err),
			fmsg.WithDesc(fmt.Sprintf("opening %s", out.String()), fmt.Sprintf("Could not open MIDI output %s", out.String())),
			ftag.With(KindUnavailable),
		)
	}
	return &Port{out: out, send: send}, nil
}

// Send writes msg to the port.
func (p *Port) Send(msg []byte) error {
	return p.send(midi.Message(msg))
}

// Close closes the port.
func (p *Port) Close() error {
	return p.out.Close()
}

func (p *Port) String() string {
	return p.out.String()
}

// Multi fans every message out to all of its transports.
type Multi []Transport

// Send delivers msg to every transport, collecting failures.
func (m Multi) Send(msg []byte) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
