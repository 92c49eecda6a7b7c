package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hexwave/wavelet/commons"
)

type (
	errMsg error
	wsMsg  commons.Message
	wsGone struct{}
)

type model struct {
	conn *websocket.Conn
	msgs chan commons.Message

	input    textinput.Model
	username string
	LoggedIn bool
	Quitting bool

	blipID   uuid.UUID
	snapshot *commons.BlipSnapshot
	status   string
	err      error
}

func initialModel(conn *websocket.Conn, msgs chan commons.Message, blipID uuid.UUID) model {
	ti := textinput.New()
	ti.Placeholder = "Username"
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 40

	return model{
		conn:   conn,
		msgs:   msgs,
		input:  ti,
		blipID: blipID,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForMessage(m.msgs))
}

// waitForMessage bridges the websocket read pump into the update loop.
func waitForMessage(msgs chan commons.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-msgs
		if !ok {
			return wsGone{}
		}
		return wsMsg(msg)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			if !m.LoggedIn {
				return m.login()
			}
			return m.submit()
		}

	case wsMsg:
		m.handleServer(commons.Message(msg))
		return m, waitForMessage(m.msgs)

	case wsGone:
		m.status = "lost connection!"
		m.Quitting = true
		return m, tea.Quit

	// We handle errors just like any other message.
	case errMsg:
		m.err = msg
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// login sends the join message and requests (or creates) the blip.
func (m model) login() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.input.Value())
	if name == "" {
		return m, nil
	}
	m.username = name
	m.LoggedIn = true

	join := commons.Message{Username: name, Text: "has joined the session.", Type: commons.JoinMessage}
	if err := m.conn.WriteJSON(join); err != nil {
		m.status = "lost connection!"
		return m, tea.Quit
	}
	req := commons.Message{Username: name, Type: commons.BlipReqMessage, BlipID: m.blipID}
	if err := m.conn.WriteJSON(req); err != nil {
		m.status = "lost connection!"
		return m, tea.Quit
	}

	m.input.Reset()
	m.input.Placeholder = "append hello, world"
	m.status = "waiting for blip..."
	return m, nil
}

// submit parses the entered command and sends it to the server.
func (m model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	length := 0
	if m.snapshot != nil {
		length = len([]rune(m.snapshot.Content))
	}

	msg, err := parseCommand(line, length)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	msg.Username = m.username
	msg.BlipID = m.blipID

	logger.Debugf("sending %s: %+v", msg.Type, msg)
	if err := m.conn.WriteJSON(msg); err != nil {
		m.status = "lost connection!"
		return m, tea.Quit
	}

	m.input.Reset()
	m.status = ""
	return m, nil
}

// handleServer folds a server message into the model.
func (m *model) handleServer(msg commons.Message) {
	switch msg.Type {
	case commons.BlipSyncMessage:
		if m.blipID == uuid.Nil || m.blipID == msg.BlipID {
			m.blipID = msg.BlipID
			m.snapshot = msg.Snapshot
			m.status = ""
		}
	case commons.ErrorMessage:
		m.status = msg.Text
	case commons.JoinMessage:
		m.status = fmt.Sprintf("%s has joined the session!", msg.Username)
	}
}

func loginView(m model) string {
	return fmt.Sprintf(
		"Enter username:\n\n%s\n\n%s",
		m.input.View(),
		"(esc to quit)",
	) + "\n"
}

func blipView(m model) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Username: %s", m.username)
	if m.blipID != uuid.Nil {
		fmt.Fprintf(&b, "    Blip: %s", m.blipID)
	}
	b.WriteString("\n\n")

	if m.snapshot == nil {
		b.WriteString("(no blip yet)\n")
	} else {
		fmt.Fprintf(&b, "%q\n", m.snapshot.Content)
		if len(m.snapshot.Annotations) > 0 {
			b.WriteString("\nAnnotations:\n")
			for _, a := range m.snapshot.Annotations {
				fmt.Fprintf(&b, "  (%d:%d) %s=%s\n", a.Start, a.End, a.Name, a.Value)
			}
		}
		if len(m.snapshot.Contributors) > 0 {
			fmt.Fprintf(&b, "\nContributors: %s\n", strings.Join(m.snapshot.Contributors, ", "))
		}
	}

	fmt.Fprintf(&b, "\n%s\n", m.input.View())
	if m.status != "" {
		fmt.Fprintf(&b, "\n%s\n", m.status)
	}
	b.WriteString("\n(commands: append, ins, del, elem, note | ctrl+c to quit)\n")
	return b.String()
}

func (m model) View() string {
	if m.Quitting {
		return "\n  See you later!\n\n"
	}
	if !m.LoggedIn {
		return loginView(m)
	}
	return blipView(m)
}
