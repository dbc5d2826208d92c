package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	PrevInstrument key.Binding
	NextInstrument key.Binding
	PrevGroup      key.Binding
	NextGroup      key.Binding
	Play           key.Binding
	Quit           key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		PrevInstrument: key.NewBinding(key.WithKeys("w", "up"), key.WithHelp("w/↑", "prev instrument")),
		NextInstrument: key.NewBinding(key.WithKeys("s", "down"), key.WithHelp("s/↓", "next instrument")),
		PrevGroup:      key.NewBinding(key.WithKeys("a", "left"), key.WithHelp("a/←", "prev group")),
		NextGroup:      key.NewBinding(key.WithKeys("d", "right"), key.WithHelp("d/→", "next group")),
		Play:           key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play note")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevInstrument, k.NextInstrument, k.PrevGroup, k.NextGroup, k.Play, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevInstrument, k.NextInstrument},
		{k.PrevGroup, k.NextGroup},
		{k.Play, k.Quit},
	}
}
