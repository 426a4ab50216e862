// Package tui is the interactive terminal surface of the edit studio.
//
// Files arrive three ways: dragged onto the terminal (which types their
// paths into the drop field), picked in the built-in browser, or chosen in
// the native file dialog. The prompt is a textarea; ctrl+s submits.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fpang/warm-edit-studio/internal/apperr"
	"github.com/fpang/warm-edit-studio/internal/cli"
	"github.com/fpang/warm-edit-studio/internal/filehandler"
	"github.com/fpang/warm-edit-studio/internal/intake"
	"github.com/fpang/warm-edit-studio/internal/session"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

type focus int

const (
	focusDrop focus = iota
	focusPrompt
	focusBrowse
)

const promptPlaceholder = "Softly brighten the background, add a hint of blush, and make the lighting feel golden hour."

// editDoneMsg carries the outcome of a submission back to Update.
type editDoneMsg struct {
	outcome session.Outcome
}

// candidatesMsg carries files read from disk for a drop.
type candidatesMsg struct {
	candidates []*intake.Candidate
	err        error
}

// pickedMsg is the native dialog result.
type pickedMsg struct {
	path     string
	canceled bool
	err      error
}

type noticeMsg string

// Options configures the model.
type Options struct {
	Intake  *intake.Controller
	Session *session.Controller
	// StartDir is where the built-in browser opens. Defaults to the working directory.
	StartDir string
	// MaxUploadBytes is shown in the drop zone hint.
	MaxUploadBytes int64
	// Context bounds edit requests.
	Context context.Context
}

// Model is the bubbletea model.
type Model struct {
	intake  *intake.Controller
	session *session.Controller
	ctx     context.Context
	styles  styles

	dropInput textinput.Model
	prompt    textarea.Model
	picker    filepicker.Model
	spinner   spinner.Model

	focus    focus
	width    int
	maxBytes int64
	notice   string

	pickFile  func() (string, error)
	copyText  func(string) error
	readPaths func([]string) ([]*intake.Candidate, error)
}

// New creates the model.
func New(opts Options) Model {
	st := newStyles()

	di := textinput.New()
	di.Placeholder = "Drag & drop an image here, or type a path and press enter"
	di.Prompt = "⬆ "
	di.CharLimit = 4096
	di.Width = 60
	di.Focus()

	ta := textarea.New()
	ta.Placeholder = promptPlaceholder
	ta.Prompt = ""
	ta.CharLimit = 2000
	ta.ShowLineNumbers = false
	ta.SetHeight(4)
	ta.SetWidth(64)
	ta.Blur()

	fp := filepicker.New()
	fp.AllowedTypes = filehandler.ImageExtensions()
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			fp.CurrentDirectory = wd
		}
	}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.Height = 12
	fp.AutoHeight = false
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(colorWarm).Bold(true)
	fp.Styles.File = lipgloss.NewStyle().Foreground(colorSuccess)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	fp.Styles.DisabledFile = lipgloss.NewStyle().Foreground(colorMuted)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = st.status.Copy().Bold(true)

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = intake.DefaultMaxBytes
	}

	return Model{
		intake:    opts.Intake,
		session:   opts.Session,
		ctx:       ctx,
		styles:    st,
		dropInput: di,
		prompt:    ta,
		picker:    fp,
		spinner:   sp,
		focus:     focusDrop,
		maxBytes:  maxBytes,
		pickFile:  pickWithDialog,
		copyText:  clipboard.WriteAll,
		readPaths: readCandidates,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.picker.Init())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := max(msg.Width-6, 20)
		m.prompt.SetWidth(min(w, 96))
		m.dropInput.Width = min(w-4, 96)
		m.picker.Height = max(msg.Height-16, 5)
		return m, nil

	case editDoneMsg:
		m.session.Complete(msg.outcome)
		return m, nil

	case candidatesMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("Dropped file could not be read")
			m.intake.DragLeave()
			m.session.Notify(intake.MsgUnreadable)
			return m, nil
		}
		if err := m.intake.Drop(msg.candidates); err != nil {
			logIntakeError(err)
		}
		return m, nil

	case pickedMsg:
		switch {
		case msg.canceled:
			return m, nil
		case msg.err != nil:
			log.Warn().Err(msg.err).Msg("Native file dialog failed")
			m.notice = "The file dialog is not available here. Press tab to browse instead."
			return m, nil
		}
		return m, m.loadPaths([]string{msg.path})

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case spinner.TickMsg:
		if m.session.State() == session.Submitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.focus == focusBrowse {
				return m.setFocus(focusDrop)
			}
			if m.focus == focusDrop && m.dropInput.Value() != "" {
				m.dropInput.Reset()
				m.intake.DragLeave()
				return m, nil
			}
			return m, tea.Quit
		case "tab":
			return m.setFocus((m.focus + 1) % 3)
		case "shift+tab":
			return m.setFocus((m.focus + 2) % 3)
		case "ctrl+s":
			return m.submit()
		case "ctrl+o":
			return m, m.openDialog()
		case "ctrl+y":
			return m, m.copyResult()
		}

		m.notice = ""
		switch m.focus {
		case focusDrop:
			if msg.Type == tea.KeyEnter {
				paths := splitDroppedPaths(m.dropInput.Value())
				m.dropInput.Reset()
				if len(paths) == 0 {
					m.intake.DragLeave()
					return m, nil
				}
				return m, m.loadPaths(paths)
			}
			var cmd tea.Cmd
			m.dropInput, cmd = m.dropInput.Update(msg)
			if m.dropInput.Value() != "" {
				m.intake.DragOver()
			} else {
				m.intake.DragLeave()
			}
			return m, cmd

		case focusPrompt:
			var cmd tea.Cmd
			m.prompt, cmd = m.prompt.Update(msg)
			m.intake.SetPrompt(m.prompt.Value())
			return m, cmd

		case focusBrowse:
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			cmds = append(cmds, cmd)
			if ok, path := m.picker.DidSelectFile(msg); ok {
				cmds = append(cmds, m.loadPaths([]string{path}))
			} else if ok, _ := m.picker.DidSelectDisabledFile(msg); ok {
				m.session.Notify(intake.MsgChooseImage)
			}
			return m, tea.Batch(cmds...)
		}
	}

	// Non-key messages, such as directory listings, go to the picker.
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	cmds = append(cmds, cmd)
	m.dropInput, cmd = m.dropInput.Update(msg)
	cmds = append(cmds, cmd)
	m.prompt, cmd = m.prompt.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) setFocus(f focus) (tea.Model, tea.Cmd) {
	if m.focus == focusDrop && f != focusDrop && m.dropInput.Value() != "" {
		m.dropInput.Reset()
		m.intake.DragLeave()
	}
	m.focus = f
	m.dropInput.Blur()
	m.prompt.Blur()

	switch f {
	case focusDrop:
		return m, m.dropInput.Focus()
	case focusPrompt:
		return m, m.prompt.Focus()
	}
	return m, nil
}

// submit starts a submission. The control is disabled while one is in flight.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.session.State() == session.Submitting {
		return m, nil
	}
	ticket, ok := m.session.Begin(m.intake.Source(), m.intake.Prompt())
	if !ok {
		return m, nil
	}

	ctx := m.ctx
	sess := m.session
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return editDoneMsg{outcome: sess.Execute(ctx, ticket)}
	})
}

func (m Model) loadPaths(paths []string) tea.Cmd {
	read := m.readPaths
	return func() tea.Msg {
		candidates, err := read(paths)
		return candidatesMsg{candidates: candidates, err: err}
	}
}

// readCandidates reads only the first path; a drop takes the first file.
func readCandidates(paths []string) ([]*intake.Candidate, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	c, err := intake.CandidateFromPath(paths[0])
	if err != nil {
		return nil, err
	}
	return []*intake.Candidate{c}, nil
}

func (m Model) openDialog() tea.Cmd {
	pick := m.pickFile
	return func() tea.Msg {
		path, err := pick()
		if errors.Is(err, zenity.ErrCanceled) {
			return pickedMsg{canceled: true}
		}
		return pickedMsg{path: path, err: err}
	}
}

func pickWithDialog() (string, error) {
	return zenity.SelectFile(
		zenity.Title("Choose an image to edit"),
		zenity.FileFilters{
			{Name: "Images", Patterns: filehandler.ImagePatterns()},
		},
	)
}

func (m Model) copyResult() tea.Cmd {
	resolved, ok := m.session.ResolvedResult()
	if !ok {
		return func() tea.Msg { return noticeMsg("Nothing to copy yet.") }
	}
	copyText := m.copyText
	return func() tea.Msg {
		if err := copyText(resolved); err != nil {
			log.Warn().Err(err).Msg("Clipboard unavailable")
			return noticeMsg("Could not reach the clipboard.")
		}
		return noticeMsg("Result link copied to clipboard.")
	}
}

func logIntakeError(err error) {
	if apperr.Is(err, apperr.KindInvalidInput) {
		log.Info().Err(err).Msg("Selection rejected")
		return
	}
	log.Warn().Err(err).Msg("Selection failed")
}

func (m Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.eyebrow.Render("Warm Edit Studio") + "\n")
	b.WriteString(s.title.Render("Gentle edits powered by your ideas") + "\n")
	b.WriteString(s.lede.Render("Add a photo, write a short instruction, and we will return an edited version.") + "\n\n")

	if m.focus == focusBrowse {
		b.WriteString(s.panelFocused.Render(s.panelTitle.Render("Browse your files") + "\n" +
			s.hint.Render(m.picker.CurrentDirectory) + "\n\n" + m.picker.View()))
		b.WriteString("\n")
	} else {
		b.WriteString(m.dropPanel())
		b.WriteString("\n")
		b.WriteString(m.promptPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.actionsLine())
	b.WriteString("\n\n")
	b.WriteString(m.resultPanel())
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(s.hint.Render(m.notice) + "\n")
	}
	b.WriteString(s.help.Render("tab focus · enter drop path · ctrl+o file dialog · ctrl+s edit · ctrl+y copy result · esc quit"))
	return b.String()
}

func (m Model) dropPanel() string {
	s := m.styles
	var body strings.Builder

	if src := m.intake.Source(); src != nil {
		body.WriteString(s.fileName.Render(src.Name) + "\n")
		meta := []string{src.MIMEType, cli.FormatSize(src.Size())}
		if dims := cli.FormatDimensions(src.Width, src.Height); dims != "" {
			meta = append(meta, dims)
		}
		if summary := src.Metadata.Summary(); summary != "" {
			meta = append(meta, summary)
		}
		body.WriteString(s.fileSub.Render(strings.Join(meta, " · ")) + "\n")
		if h, ok := m.intake.Preview(); ok {
			body.WriteString(s.hint.Render("Preview: "+h.URL) + "\n")
		}
		body.WriteString(s.fileSub.Render("Drop or pick a new one to replace") + "\n")
	} else {
		body.WriteString(s.panelTitle.Render("Drag & drop an image") + "\n")
		body.WriteString(s.fileSub.Render(fmt.Sprintf("PNG, JPG, HEIC · up to %s works best", cli.FormatSize(m.maxBytes))) + "\n")
	}
	body.WriteString(m.dropInput.View())

	style := s.panel
	switch {
	case m.intake.Dragging():
		style = s.dropping
	case m.focus == focusDrop:
		style = s.panelFocused
	}
	return style.Render(body.String())
}

func (m Model) promptPanel() string {
	s := m.styles
	style := s.panel
	if m.focus == focusPrompt {
		style = s.panelFocused
	}
	return style.Render(s.panelTitle.Render("Describe your edit") + "\n" + m.prompt.View())
}

func (m Model) actionsLine() string {
	s := m.styles
	state := m.session.State()

	var button string
	switch {
	case state == session.Submitting:
		button = s.buttonBusy.Render("Working on it…")
	case state.Terminal():
		button = s.button.Render("Edit again (ctrl+s)")
	default:
		button = s.button.Render("Edit my image (ctrl+s)")
	}

	status := m.session.Status()
	statusStyle := s.status
	if state == session.Failed {
		statusStyle = s.statusError
	}
	line := statusStyle.Render(status)
	if state == session.Submitting {
		line = m.spinner.View() + " " + line
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, button, "  ", line)
}

func (m Model) resultPanel() string {
	s := m.styles
	header := s.panelTitle.Render("Your edited image")

	result, ok := m.session.Result()
	if !ok {
		return s.panel.Render(header + "\n" +
			s.placeholder.Render("The magic will appear here") + "\n" +
			s.placeholder.Render("Share a prompt to see your edited image appear here."))
	}

	header += "  " + s.pill.Render("Ready")
	var line string
	if result.IsDataURL() {
		line = fmt.Sprintf("Inline image (%s) · ctrl+y to copy", cli.FormatSize(int64(len(result.Reference))))
	} else {
		line = m.session.ResolveResult(result.Reference)
	}
	body := header + "\n" + s.result.Render(line)
	if result.Filename != "" {
		body += "\n" + s.fileSub.Render(result.Filename)
	}
	return s.panel.Render(body)
}
