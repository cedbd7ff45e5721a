package tui

import "github.com/charmbracelet/bubbles/key"

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Up, Down, Left, Right key.Binding

	Press    key.Binding
	Selector key.Binding

	Play      key.Binding
	Panic     key.Binding
	Clock     key.Binding
	Reset     key.Binding
	PrevPat   key.Binding
	NextPat   key.Binding
	TempoUp   key.Binding
	TempoDown key.Binding
	Clear     key.Binding

	Stages key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:    Key("up", "k", "up"),
		Down:  Key("down", "j", "down"),
		Left:  Key("left", "h", "left"),
		Right: Key("right", "l", "right"),

		Press:    Key("toggle marker", "space", "enter"),
		Selector: Key("select marker", "1", "2", "3", "4", "5", "6", "7", "8"),

		Play:      Key("play/stop", "p"),
		Panic:     Key("panic", "!"),
		Clock:     Key("clock source", "c"),
		Reset:     Key("reset policy", "r"),
		PrevPat:   Key("prev pattern", "["),
		NextPat:   Key("next pattern", "]"),
		TempoUp:   Key("tempo +5", "+", "="),
		TempoDown: Key("tempo -5", "-", "_"),
		Clear:     Key("clear all", "X"),

		Stages: Key("stage readout", "d"),
		Help:   Key("help", "?"),
		Quit:   Key("quit", "q", "ctrl+c"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Press, k.Selector, k.Play, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Press, k.Selector},
		{k.Play, k.Panic, k.Clock, k.Reset},
		{k.PrevPat, k.NextPat, k.TempoUp, k.TempoDown, k.Clear},
		{k.Stages, k.Help, k.Quit},
	}
}
