// Package codec encodes the MIDI channel voice messages used to select
// instruments on the synthesizer.
package codec

import (
	"errors"
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gitlab.com/gomidi/midi/v2"

	"github.com/icco/sc8850/internal/catalogue"
)

// Command nibbles of the channel voice messages we send.
const (
	NoteOffCommand       uint8 = 0x8
	NoteOnCommand        uint8 = 0x9
	ControlChangeCommand uint8 = 0xB
	ProgramChangeCommand uint8 = 0xC

	// BankSelectMSB is controller number 0.
	BankSelectMSB uint8 = 0x00

	maxChannel = 15
	maxNibble  = 0xF
	maxData    = 0x7F
)

var (
	// ErrInvalidChannel is returned for channels outside [0,15].
	ErrInvalidChannel = errors.New("invalid MIDI channel")
	// ErrInvalidCommand is returned for command nibbles outside [0,15].
	ErrInvalidCommand = errors.New("invalid MIDI command")
	// ErrInvalidData is returned for data bytes outside [0,127].
	ErrInvalidData = errors.New("invalid MIDI data byte")
)

// KindInvalidChannel tags channel errors.
const KindInvalidChannel ftag.Kind = "invalid_channel"

// PackStatusByte places the command in the high nibble and the channel in the
// low nibble.
func PackStatusByte(command, channel uint8) (byte, error) {
	if command > maxNibble {
		return 0, fault.Wrap(ErrInvalidCommand, fmsg.With(fmt.Sprintf("command 0x%X", command)))
	}
	if channel > maxChannel {
		return 0, fault.Wrap(ErrInvalidChannel,
			fmsg.WithDesc(fmt.Sprintf("channel %d", channel), fmt.Sprintf("MIDI channel %d is outside 0-15", channel)),
			ftag.With(KindInvalidChannel),
		)
	}
	return command<<4 | channel, nil
}

// ProgramChange returns [0xCn, pc] for the instrument.
func ProgramChange(inst *catalogue.Instrument) (midi.Message, error) {
	status, err := PackStatusByte(ProgramChangeCommand, inst.Channel)
	if err != nil {
		return nil, err
	}
	if err := checkData(inst.ProgramChange); err != nil {
		return nil, err
	}
	return midi.Message{status, inst.ProgramChange}, nil
}

// BankSelect returns [0xBn, 0, cc] for the instrument.
func BankSelect(inst *catalogue.Instrument) (midi.Message, error) {
	status, err := PackStatusByte(ControlChangeCommand, inst.Channel)
	if err != nil {
		return nil, err
	}
	if err := checkData(inst.ControlChange); err != nil {
		return nil, err
	}
	return midi.Message{status, BankSelectMSB, inst.ControlChange}, nil
}

// Select returns the bank select followed by the program change.
func Select(inst *catalogue.Instrument) ([]midi.Message, error) {
	bank, err := BankSelect(inst)
	if err != nil {
		return nil, err
	}
	prog, err := ProgramChange(inst)
	if err != nil {
		return nil, err
	}
	return []midi.Message{bank, prog}, nil
}

// NoteOn returns [0x9n, note, velocity] on the instrument's channel.
func NoteOn(inst *catalogue.Instrument, note, velocity uint8) (midi.Message, error) {
	status, err := PackStatusByte(NoteOnCommand, inst.Channel)
	if err != nil {
		return nil, err
	}
	if err := checkData(note, velocity); err != nil {
		return nil, err
	}
	return midi.Message{status, note, velocity}, nil
}

// NoteOff returns [0x8n, note, 0] on the instrument's channel.
func NoteOff(inst *catalogue.Instrument, note uint8) (midi.Message, error) {
	status, err := PackStatusByte(NoteOffCommand, inst.Channel)
	if err != nil {
		return nil, err
	}
	if err := checkData(note); err != nil {
		return nil, err
	}
	return midi.Message{status, note, 0}, nil
}

func checkData(bs ...uint8) error {
	for _, b := range bs {
		if b > maxData {
			return fault.Wrap(ErrInvalidData, fmsg.With(fmt.Sprintf("data byte %d", b)))
		}
	}
	return nil
}
