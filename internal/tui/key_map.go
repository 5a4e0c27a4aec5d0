package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the scan client.
type keyMap struct {
	start   key.Binding
	submit  key.Binding
	file    key.Binding
	list    key.Binding
	confirm key.Binding
	cancel  key.Binding
	retry   key.Binding
	resume  key.Binding
	stop    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start scanning")),
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		file:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "scan image file")),
		list:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "list collection")),
		confirm: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "save")),
		cancel:  key.NewBinding(key.WithKeys("esc", "n"), key.WithHelp("esc", "cancel")),
		retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		resume:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "resume")),
		stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.submit, k.file, k.list, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.start, k.submit, k.file},
		{k.confirm, k.cancel, k.retry},
		{k.list, k.stop, k.quit},
	}
}
