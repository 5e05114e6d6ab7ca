package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	agentbox "agentbox-sdk"
	"agentbox-sdk/models"
)

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
)

type sessionReadyMsg struct{ session *agentbox.Session }

type streamEventMsg struct{ event models.StreamEvent }

type streamDoneMsg struct{ err error }

type filesMsg struct {
	path  string
	files []models.FileInfo
}

type fileContentMsg struct {
	path    string
	content string
}

type cliErrMsg struct{ err error }

type sessionDeletedMsg struct{}

type chatModel struct {
	client  *agentbox.Client
	cfg     *Config
	session *agentbox.Session

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	lines    []string
	partial  string
	creating bool
	busy     bool
	ready    bool
	width    int
	height   int

	events chan tea.Msg
	cancel context.CancelFunc
}

func newChatModel(client *agentbox.Client, cfg *Config) chatModel {
	input := textinput.New()
	input.Placeholder = "Message the agent, or /files, /read <path>, /status, /quit"
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = systemStyle

	return chatModel{
		client:   client,
		cfg:      cfg,
		input:    input,
		spinner:  sp,
		creating: true,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.createSession())
}

func (m chatModel) createSession() tea.Cmd {
	return func() tea.Msg {
		opts := agentbox.CreateOptions{AnthropicAPIKey: m.cfg.AnthropicAPIKey}
		if m.cfg.Repo != "" {
			opts.Repo = &m.cfg.Repo
		}
		if m.cfg.GitHubToken != "" {
			opts.GitToken = &m.cfg.GitHubToken
		}

		session, err := m.client.CreateSession(context.Background(), opts)
		if err != nil {
			debugLog.Error().Err(err).Msg("create session failed")
			return cliErrMsg{err: err}
		}
		debugLog.Info().
			Str("session_id", session.ID()).
			Str("sandbox_id", session.Sandbox().SandboxID).
			Msg("session created")
		return sessionReadyMsg{session: session}
	}
}

// sendMessage streams one message; events are forwarded into the bubbletea
// loop through a channel so the view updates as they arrive.
func (m *chatModel) sendMessage(text string) tea.Cmd {
	events := make(chan tea.Msg, 16)
	ctx, cancel := context.WithCancel(context.Background())
	m.events = events
	m.cancel = cancel

	session := m.session
	go func() {
		defer close(events)
		err := session.SendMessage(ctx, text, func(e models.StreamEvent) {
			events <- streamEventMsg{event: e}
		})
		events <- streamDoneMsg{err: err}
	}()

	return m.waitForEvent()
}

func (m chatModel) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, m.quit()
		case "enter":
			return m.submit()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionReadyMsg:
		m.creating = false
		m.session = msg.session
		m.append(systemStyle.Render(fmt.Sprintf("sandbox %s ready", msg.session.Sandbox().SandboxID)))
		return m, nil

	case streamEventMsg:
		m.renderEvent(msg.event)
		return m, m.waitForEvent()

	case streamDoneMsg:
		m.busy = false
		m.cancel = nil
		if msg.err != nil {
			debugLog.Error().Err(msg.err).Msg("stream ended with error")
			m.append(errorStyle.Render(fmt.Sprintf("stream error: %v", msg.err)))
		}
		return m, nil

	case filesMsg:
		m.append(systemStyle.Render(msg.path))
		for _, f := range msg.files {
			name := f.Name
			if f.IsDirectory {
				name += "/"
			}
			m.append("  " + name)
		}
		return m, nil

	case fileContentMsg:
		m.append(systemStyle.Render(msg.path))
		m.append(msg.content)
		return m, nil

	case cliErrMsg:
		m.creating = false
		m.append(errorStyle.Render(msg.err.Error()))
		return m, nil

	case sessionDeletedMsg:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.creating || m.busy || m.session == nil {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(text, "/") {
		return m.runCommand(text)
	}

	m.append(userStyle.Render("you ") + text)
	m.partial = ""
	m.busy = true
	return m, m.sendMessage(text)
}

func (m chatModel) runCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	session := m.session

	switch fields[0] {
	case "/quit":
		return m, m.quit()

	case "/status":
		m.append(statusStyle.Render(string(session.Status())) + " session " + session.ID())
		return m, nil

	case "/files":
		path := ""
		if len(fields) > 1 {
			path = fields[1]
		}
		return m, func() tea.Msg {
			files, err := session.ListFiles(context.Background(), path)
			if err != nil {
				return cliErrMsg{err: err}
			}
			if path == "" {
				path = agentbox.DefaultWorkspacePath
			}
			return filesMsg{path: path, files: files}
		}

	case "/read":
		if len(fields) < 2 {
			m.append(errorStyle.Render("usage: /read <path>"))
			return m, nil
		}
		path := fields[1]
		return m, func() tea.Msg {
			content, err := session.ReadFile(context.Background(), path)
			if err != nil {
				return cliErrMsg{err: err}
			}
			return fileContentMsg{path: path, content: content}
		}

	default:
		m.append(errorStyle.Render("unknown command: " + fields[0]))
		return m, nil
	}
}

func (m chatModel) quit() tea.Cmd {
	session := m.session
	if session == nil {
		return tea.Quit
	}
	return func() tea.Msg {
		if err := session.Delete(context.Background()); err != nil {
			debugLog.Error().Err(err).Msg("delete session failed")
		}
		return sessionDeletedMsg{}
	}
}

// renderEvent folds one stream event into the conversation view. Partial
// assistant chunks replace each other until the final chunk lands.
func (m *chatModel) renderEvent(e models.StreamEvent) {
	switch e.Type {
	case models.EventMessageAssist:
		if e.Message == nil {
			return
		}
		if e.Message.IsPartial {
			m.partial += e.Message.Content
			m.refresh()
			return
		}
		m.partial = ""
		m.append(agentStyle.Render("agent ") + e.Message.Content)

	case models.EventMessageTool:
		if e.Tool == nil {
			return
		}
		if e.Tool.Result != "" {
			m.append(toolStyle.Render(fmt.Sprintf("tool %s done", e.Tool.Name)))
		} else {
			m.append(toolStyle.Render(fmt.Sprintf("tool %s %s", e.Tool.Name, e.Tool.Arguments)))
		}

	case models.EventError:
		if e.Err != nil {
			m.append(errorStyle.Render("agent error: " + e.Err.Message))
		}

	case models.EventSessionStarting, models.EventSessionRunning,
		models.EventSessionIdle, models.EventSessionPaused:
		// Lifecycle events show up in /status; no chat line needed.

	case models.EventMessageComplete:
		m.partial = ""
	}
	m.refresh()
}

func (m *chatModel) append(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	content := strings.Join(m.lines, "\n")
	if m.partial != "" {
		content += "\n" + agentStyle.Render("agent ") + m.partial
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m chatModel) View() string {
	if m.creating {
		return fmt.Sprintf("\n  %s creating sandbox...\n", m.spinner.View())
	}
	if !m.ready {
		return ""
	}

	status := ""
	if m.busy {
		status = m.spinner.View() + " streaming"
	}
	return fmt.Sprintf("%s\n%s\n%s", m.viewport.View(), status, m.input.View())
}
