package tui

import (
	"fmt"
	"strings"

	"bookshelf/internal/book"
	"bookshelf/internal/scanner"
)

// bookItem wraps [book.Book] to implement list.Item.
type bookItem struct {
	book book.Book
}

func (i bookItem) FilterValue() string { return i.book.Title }
func (i bookItem) Title() string       { return i.book.Title }
func (i bookItem) Description() string {
	desc := i.book.ISBN
	if authors := i.book.AuthorsDisplay(); authors != "" {
		desc = fmt.Sprintf("%s • %s", desc, authors)
	}
	return desc
}

func (m *Model) View() string {
	if m.fatal != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.fatal))
	}
	if m.listing {
		return m.bookList.View() + "\n" + styles.help.Render("esc back • q quit")
	}
	if m.pickingFile {
		return m.renderFilePicker()
	}

	switch m.ctl.State() {
	case scanner.StateIdle:
		return m.renderIdle()
	case scanner.StateInitializing:
		return styles.title.Render("Book Scanner") + "\n" + m.spin.View() + " starting scanner..."
	case scanner.StateScanning:
		return m.renderScanning()
	case scanner.StatePaused:
		return m.renderPaused()
	case scanner.StateProcessing:
		return styles.title.Render("Book Scanner") + "\n" + m.spin.View() + " looking up book..."
	case scanner.StateShowingResult:
		return m.renderResult()
	case scanner.StateShowingError:
		return m.renderError()
	default:
		return ""
	}
}

func (m *Model) renderIdle() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Book Scanner"))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(styles.notice.Render(m.status))
		b.WriteString("\n\n")
	}
	b.WriteString("Scanner stopped.\n\n")
	b.WriteString(styles.help.Render("s start scanning • l list collection • q quit"))
	return b.String()
}

func (m *Model) renderScanning() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Book Scanner"))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(styles.notice.Render(m.status))
		b.WriteString("\n\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderPaused() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Book Scanner"))
	b.WriteString("\n")
	b.WriteString(styles.warn.Render("Scanning paused."))
	b.WriteString("\n\n")
	b.WriteString(styles.help.Render("s resume • q quit"))
	return b.String()
}

func (m *Model) renderFilePicker() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Scan From Image"))
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(styles.warn.Render(m.status))
		b.WriteString("\n\n")
	}
	b.WriteString(m.fileInput.View())
	b.WriteString("\n\n")
	b.WriteString(styles.help.Render("enter decode • esc back"))
	return b.String()
}

func (m *Model) renderResult() string {
	draft := m.ctl.Draft()
	if draft == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Book Found"))
	b.WriteString("\n")

	if warning := m.ctl.Warning(); warning != "" {
		b.WriteString(styles.warn.Render(warning))
		b.WriteString("\n\n")
	}

	writeField := func(label, value string) {
		if value != "" {
			b.WriteString(styles.label.Render(label+": ") + value + "\n")
		}
	}
	writeField("ISBN", draft.ISBN)
	writeField("Title", draft.Title)
	writeField("Authors", strings.Join(draft.Authors, ", "))
	writeField("Publisher", draft.Publisher)
	writeField("Published", draft.PublishedDate)

	b.WriteString("\n")
	b.WriteString(styles.help.Render("y save • esc cancel"))
	return b.String()
}

func (m *Model) renderError() string {
	scanErr := m.ctl.Err()
	if scanErr == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("Scan Problem"))
	b.WriteString("\n")
	b.WriteString(styles.err.Render(scanErr.UserMessage))
	b.WriteString("\n")
	b.WriteString(scanErr.SuggestedAction)
	b.WriteString("\n")

	if existing := m.ctl.Existing(); existing != nil {
		b.WriteString(styles.label.Render("In collection: "))
		b.WriteString(fmt.Sprintf("%s (%s)\n", existing.Title, existing.ISBN))
	}
	b.WriteString("\n")

	var options []string
	if scanErr.ShowRetry {
		options = append(options, "r retry")
	}
	if scanErr.ShowFileFallback {
		options = append(options, "f scan image file")
	}
	if scanErr.ShowManualEntry {
		options = append(options, "r then type the ISBN")
	}
	options = append(options, "esc back", "q quit")
	b.WriteString(styles.help.Render(strings.Join(options, " • ")))
	return b.String()
}
