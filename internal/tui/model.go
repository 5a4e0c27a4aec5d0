// Package tui is the terminal host for the scanner workflow. A hardware
// barcode scanner in keyboard-wedge mode types digits into the input line,
// so "camera" here is the live input field; the file path covers saved
// barcode photos.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"bookshelf/internal/barcode"
	"bookshelf/internal/book"
	"bookshelf/internal/scan"
	"bookshelf/internal/scanner"
)

// api is the server boundary the model talks to.
type api interface {
	ProcessScan(ctx context.Context, text, source string) (scan.Outcome, error)
	Confirm(ctx context.Context, draft scan.Draft) (*book.Book, *scan.ScanError, error)
	ListBooks(ctx context.Context, query string) ([]book.Book, error)
}

type cameraReadyMsg struct{}

type outcomeMsg struct {
	outcome scan.Outcome
	err     error
}

type confirmMsg struct {
	saved   *book.Book
	scanErr *scan.ScanError
	err     error
}

type fileDecodedMsg struct {
	text string
	err  error
}

type booksFetchedMsg struct {
	books []book.Book
	err   error
}

type tickMsg time.Time

// Model is the TUI application state. The scanner controller owns the
// workflow; the model translates terminal input into events and controller
// commands into tea commands.
type Model struct {
	ctx    context.Context
	ctl    *scanner.Controller
	client api
	logger *log.Logger

	input     textinput.Model
	fileInput textinput.Model
	spin      spinner.Model
	bookList  list.Model

	pickingFile bool
	listing     bool
	status      string
	fatal       error

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel wires a model around the controller and server client.
func NewModel(ctx context.Context, ctl *scanner.Controller, client api, logger *log.Logger) *Model {
	input := textinput.New()
	input.Placeholder = "scan or type an ISBN"
	input.CharLimit = 32

	fileInput := textinput.New()
	fileInput.Placeholder = "path to barcode image"

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		ctx:       ctx,
		ctl:       ctl,
		client:    client,
		logger:    logger,
		input:     input,
		fileInput: fileInput,
		spin:      spin,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := m.runCommands(m.ctl.Handle(scanner.Start{}))
	return tea.Batch(cmds, m.spin.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.bookList.Width() == 0 {
			m.bookList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tea.BlurMsg:
		return m, m.runCommands(m.ctl.Handle(scanner.VisibilityLost{}))

	case tea.FocusMsg:
		return m, m.runCommands(m.ctl.Handle(scanner.VisibilityRegained{}))

	case cameraReadyMsg:
		cmd := m.runCommands(m.ctl.Handle(scanner.CameraReady{}))
		m.input.Focus()
		return m, cmd

	case outcomeMsg:
		if msg.err != nil {
			m.logger.Error("scan submit failed", "err", msg.err)
			return m, m.runCommands(m.ctl.Handle(scanner.SubmitFailed{}))
		}
		return m, m.runCommands(m.ctl.Handle(scanner.OutcomeReceived{Outcome: msg.outcome}))

	case confirmMsg:
		if msg.err != nil {
			m.logger.Error("confirm failed", "err", msg.err)
			return m, m.runCommands(m.ctl.Handle(scanner.SubmitFailed{}))
		}
		if msg.scanErr != nil {
			return m, m.runCommands(m.ctl.Handle(scanner.ConfirmResult{Err: msg.scanErr}))
		}
		m.status = fmt.Sprintf("Saved %q", msg.saved.Title)
		return m, m.runCommands(m.ctl.Handle(scanner.ConfirmResult{Book: msg.saved}))

	case fileDecodedMsg:
		if msg.err != nil {
			return m, m.runCommands(m.ctl.Handle(scanner.FileDecodeFailed{Details: msg.err.Error()}))
		}
		return m, m.runCommands(m.ctl.Handle(scanner.FileDecoded{Text: msg.text}))

	case booksFetchedMsg:
		if msg.err != nil {
			m.status = "Could not load collection: " + msg.err.Error()
			m.listing = false
			return m, nil
		}
		items := make([]list.Item, len(msg.books))
		for i, b := range msg.books {
			items[i] = bookItem{book: b}
		}
		m.bookList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-8)
		m.bookList.Title = fmt.Sprintf("Collection (%d)", len(msg.books))
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.runCommands(m.ctl.Handle(scanner.Tick{})), tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, m.updateInputs(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "q" && !m.input.Focused() && !m.fileInput.Focused() || msg.String() == "ctrl+c" {
		m.runCommands(m.ctl.Handle(scanner.Stop{}))
		return m, tea.Quit
	}

	if m.listing {
		return m.handleListKeys(msg)
	}
	if m.pickingFile {
		return m.handleFileKeys(msg)
	}

	switch m.ctl.State() {
	case scanner.StateIdle:
		if msg.String() == "s" {
			return m, m.runCommands(m.ctl.Handle(scanner.Start{}))
		}
		if msg.String() == "l" {
			return m.openList()
		}
	case scanner.StateScanning:
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.runCommands(m.ctl.Handle(scanner.Decoded{Text: text}))
		case "f":
			m.pickingFile = true
			m.fileInput.Focus()
			m.input.Blur()
			return m, nil
		case "l":
			return m.openList()
		case "x":
			return m, m.runCommands(m.ctl.Handle(scanner.Stop{}))
		}
	case scanner.StatePaused:
		if msg.String() == "s" {
			cmd := m.runCommands(m.ctl.Handle(scanner.Resume{}))
			m.input.Focus()
			return m, cmd
		}
	case scanner.StateShowingResult:
		switch msg.String() {
		case "y", "enter":
			return m, m.runCommands(m.ctl.Handle(scanner.Confirm{}))
		case "esc", "n":
			return m, m.runCommands(m.ctl.Handle(scanner.Cancel{}))
		}
	case scanner.StateShowingError:
		switch msg.String() {
		case "r":
			return m, m.runCommands(m.ctl.Handle(scanner.Retry{}))
		case "f":
			if m.ctl.Err() != nil && m.ctl.Err().ShowFileFallback {
				m.pickingFile = true
				m.fileInput.Focus()
				return m, nil
			}
		case "esc":
			return m, m.runCommands(m.ctl.Handle(scanner.Cancel{}))
		}
	}

	return m, m.updateInputs(msg)
}

func (m *Model) handleFileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.pickingFile = false
		m.fileInput.Reset()
		m.fileInput.Blur()
		if m.ctl.State() == scanner.StateScanning {
			m.input.Focus()
		}
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.fileInput.Value())
		if path == "" {
			return m, nil
		}
		m.pickingFile = false
		m.fileInput.Reset()
		m.fileInput.Blur()

		info, err := fileInfoFor(path)
		if err != nil {
			m.status = "Cannot read file: " + err.Error()
			return m, nil
		}
		return m, m.runCommands(m.ctl.Handle(scanner.FileChosen{File: info}))
	}

	var cmd tea.Cmd
	m.fileInput, cmd = m.fileInput.Update(msg)
	return m, cmd
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.listing = false
		if m.ctl.State() == scanner.StateScanning {
			m.input.Focus()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.bookList, cmd = m.bookList.Update(msg)
	return m, cmd
}

func (m *Model) openList() (tea.Model, tea.Cmd) {
	m.listing = true
	m.input.Blur()
	return m, func() tea.Msg {
		books, err := m.client.ListBooks(m.ctx, "")
		return booksFetchedMsg{books: books, err: err}
	}
}

// runCommands translates controller commands into tea commands. The wedge
// input needs no real device handshake, so camera acquisition resolves on
// the next update cycle.
func (m *Model) runCommands(cmds []scanner.Command) tea.Cmd {
	var out []tea.Cmd
	for _, c := range cmds {
		switch c := c.(type) {
		case scanner.AcquireCamera:
			out = append(out, func() tea.Msg { return cameraReadyMsg{} })
		case scanner.ReleaseCamera:
			m.input.Blur()
			m.input.Reset()
		case scanner.PauseCamera:
			m.input.Blur()
		case scanner.ResumeCamera:
			m.input.Focus()
		case scanner.DecodeFile:
			file := c.File
			out = append(out, func() tea.Msg {
				f, err := os.Open(file.Name)
				if err != nil {
					return fileDecodedMsg{err: err}
				}
				defer f.Close()
				text, err := barcode.DecodeImage(f)
				return fileDecodedMsg{text: text, err: err}
			})
		case scanner.SubmitScan:
			text, source := c.Text, string(c.Source)
			m.logger.Info("submitting scan", "source", source)
			out = append(out, func() tea.Msg {
				outcome, err := m.client.ProcessScan(m.ctx, text, source)
				return outcomeMsg{outcome: outcome, err: err}
			})
		case scanner.SubmitConfirm:
			draft := c.Draft
			out = append(out, func() tea.Msg {
				saved, scanErr, err := m.client.Confirm(m.ctx, draft)
				return confirmMsg{saved: saved, scanErr: scanErr, err: err}
			})
		case scanner.Notice:
			m.status = c.Text
		}
	}
	if len(out) == 0 {
		return nil
	}
	return tea.Batch(out...)
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if m.input.Focused() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.fileInput.Focused() {
		m.fileInput, cmd = m.fileInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func fileInfoFor(path string) (scan.FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return scan.FileInfo{}, err
	}
	return scan.FileInfo{
		Name:        path,
		ContentType: contentTypeForPath(path),
		Size:        stat.Size(),
	}, nil
}

func contentTypeForPath(path string) string {
	path = strings.ToLower(path)
	switch {
	case strings.HasSuffix(path, ".jpg"), strings.HasSuffix(path, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".webp"):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
