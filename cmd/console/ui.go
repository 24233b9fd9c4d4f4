package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/cyber-quest/internal/handlers"
	"github.com/jwebster45206/cyber-quest/pkg/catalog"
	"github.com/jwebster45206/cyber-quest/pkg/game"
	"github.com/jwebster45206/cyber-quest/pkg/ranking"
)

const (
	AgentName       = "Operator"
	PlaceHolderText = "Your name (optional)"
	rankingRows     = 5
)

type screen int

const (
	screenSetup screen = iota
	screenGame
	screenEnd
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config        *ConsoleConfig
	client        *http.Client
	screen        screen
	nameInput     textinput.Model
	roles         []catalog.Role
	selectedRole  int
	session       *handlers.SessionView
	log           []string
	storyViewport viewport.Model
	metaViewport  viewport.Model
	rankings      []handlers.RankingRow
	notice        string
	ready         bool
	width         int
	height        int
	err           error
	loading       bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type sessionCreatedMsg struct {
	session *handlers.SessionView
	err     error
}

type turnMsg struct {
	resp *handlers.TurnResponse
	err  error
}

type rankingsMsg struct {
	rows []handlers.RankingRow
	err  error
}

type clipboardMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

var riskStyles = map[catalog.Risk]lipgloss.Style{
	catalog.RiskLow:      successStyle,
	catalog.RiskMedium:   loadingStyle,
	catalog.RiskHigh:     errorStyle,
	catalog.RiskCritical: errorStyle.Bold(true),
}

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ti := textinput.New()
	ti.Placeholder = PlaceHolderText
	ti.Prompt = promptStyle.Render(":: ")
	ti.CharLimit = 40
	ti.Width = 30
	ti.SetValue(cfg.PlayerName)
	ti.Focus()

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:        cfg,
		client:        client,
		screen:        screenSetup,
		nameInput:     ti,
		roles:         catalog.Roles(),
		storyViewport: storyVp,
		metaViewport:  metaVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textinput.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.resize()
		return m, nil
	}

	switch m.screen {
	case screenSetup:
		return m.updateSetup(msg)
	case screenEnd:
		return m.updateEnd(msg)
	}
	return m.updateGame(msg)
}

func (m *ConsoleUI) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	storyWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - storyWidth - 6

	m.storyViewport.Width = storyWidth - 2
	m.storyViewport.Height = m.height - 5
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.ready = true
	m.refresh()
}

// refresh rebuilds both panels for the current width.
func (m *ConsoleUI) refresh() {
	if m.session == nil {
		return
	}
	width := max(20, m.storyViewport.Width-6)

	var content strings.Builder
	content.WriteString(titleStyle.Render("CYBER QUEST") + "\n\n")
	content.WriteString(wordwrap.String(fmt.Sprintf("%s as %s. Goal: %s", m.session.Scenario, m.session.RoleTitle, m.session.Goal), width) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, entry := range m.log {
		content.WriteString(wordwrap.String(entry, width) + "\n\n")
	}
	if m.session.Stage != nil {
		content.WriteString(formatStage(m.session.Stage, width))
	}
	if m.loading {
		content.WriteString("\n" + m.renderProgressBar())
	}
	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	m.storyViewport.SetContent(content.String())
	m.storyViewport.GotoBottom()
	m.metaViewport.SetContent(writeMetadata(m.session, max(10, m.metaViewport.Width-12)))
}

func (m ConsoleUI) updateSetup(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.session = msg.session
		m.log = nil
		m.screen = screenGame
		m.nameInput.Blur()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedRole > 0 {
				m.selectedRole--
			}
			return m, nil
		case tea.KeyDown:
			if m.selectedRole < len(m.roles)-1 {
				m.selectedRole++
			}
			return m, nil
		case tea.KeyEnter:
			m.loading = true
			m.err = nil
			return m, m.startSession(m.roles[m.selectedRole], strings.TrimSpace(m.nameInput.Value()))
		}
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyRunes:
			if m.loading || m.session == nil || m.session.Stage == nil {
				return m, nil
			}
			n, ok := optionKey(msg.String(), len(m.session.Stage.Options))
			if !ok {
				return m, nil
			}
			m.loading = true
			m.err = nil
			m.progressTick = 0
			m.log = append(m.log, userStyle.Render("You: ")+m.session.Stage.Options[n].Text)
			m.refresh()
			return m, tea.Batch(m.sendTurn(n), progressTick())
		}

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.log = m.log[:max(0, len(m.log)-1)]
			m.refresh()
			return m, nil
		}
		m.log = append(m.log, formatTurn(msg.resp.Result))
		m.session = &msg.resp.Session
		m.refresh()
		if msg.resp.Result.Terminal {
			m.screen = screenEnd
			return m, m.loadRankings()
		}
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.refresh()
			return m, progressTick()
		}
		return m, nil
	}

	var vpCmd, mvCmd tea.Cmd
	m.storyViewport, vpCmd = m.storyViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)
	return m, tea.Batch(vpCmd, mvCmd)
}

func (m ConsoleUI) updateEnd(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case rankingsMsg:
		if msg.err != nil {
			m.notice = "Rankings unavailable: " + msg.err.Error()
		} else {
			m.rankings = msg.rows
		}

	case clipboardMsg:
		if msg.err != nil {
			m.notice = "Copy failed: " + msg.err.Error()
		} else {
			m.notice = "Summary copied to clipboard"
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		switch msg.String() {
		case "q", "Q":
			return m, tea.Quit
		case "c", "C":
			return m, copySummary(summaryText(m.session))
		case "n", "N":
			m.screen = screenSetup
			m.session = nil
			m.log = nil
			m.rankings = nil
			m.notice = ""
			cmd := m.nameInput.Focus()
			return m, cmd
		}
	}
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) startSession(role catalog.Role, name string) tea.Cmd {
	return func() tea.Msg {
		s, err := createSession(m.client, m.config.APIBaseURL, handlers.CreateSessionRequest{
			PlayerName: name,
			Role:       string(role),
		})
		return sessionCreatedMsg{s, err}
	}
}

func (m ConsoleUI) sendTurn(option int) tea.Cmd {
	id := m.session.ID
	return func() tea.Msg {
		resp, err := playTurn(m.client, m.config.APIBaseURL, id, option)
		return turnMsg{resp, err}
	}
}

func (m ConsoleUI) loadRankings() tea.Cmd {
	return func() tea.Msg {
		rows, err := getRankings(m.client, m.config.APIBaseURL, rankingRows)
		return rankingsMsg{rows, err}
	}
}

func copySummary(text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{clipboard.WriteAll(text)}
	}
}

// optionKey maps "1".."n" to an option index.
func optionKey(key string, n int) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	i := int(key[0] - '1')
	return i, i < n
}

func formatStage(st *handlers.StageView, width int) string {
	var b strings.Builder
	b.WriteString(speakerStyle.Render(fmt.Sprintf("Stage %d · %s · %s", st.Index+1, st.Location, st.Phase)) + "\n")
	b.WriteString(wordwrap.String(st.Description, width) + "\n\n")
	for _, o := range st.Options {
		risk := riskStyles[o.Risk].Render(strings.ToUpper(string(o.Risk)))
		line := fmt.Sprintf("%d) %s [%s, %d%%, %dt]", o.Index+1, o.Text, risk, o.Success, o.Time)
		b.WriteString(wordwrap.String(line, width) + "\n")
	}
	b.WriteString("\n" + promptStyle.Render("Press a number to act"))
	return b.String()
}

func formatTurn(res *game.TurnResult) string {
	var b strings.Builder
	verdict := errorStyle.Render("FAILURE")
	if res.Success {
		verdict = successStyle.Render("SUCCESS")
	}
	fmt.Fprintf(&b, "%s roll %d vs %d%%. %s (+%d progress)", verdict, res.Roll, res.Chance, res.Text, res.Gain)

	for _, e := range res.EffectsAdded {
		fmt.Fprintf(&b, "\n  ! %s (%d turns)", e.Description, e.Remaining)
	}
	if res.GlobalEvent != nil {
		fmt.Fprintf(&b, "\n  ⚡ %s", res.GlobalEvent.Summary)
	}
	for _, o := range res.Opponents {
		switch {
		case o.Skipped:
			fmt.Fprintf(&b, "\n  %s waits.", o.Name)
		case o.Success:
			fmt.Fprintf(&b, "\n  %s: %s (+%d)", o.Name, o.Choice, o.Gain)
		default:
			fmt.Fprintf(&b, "\n  %s: %s failed", o.Name, o.Choice)
		}
	}
	if res.Line != "" {
		b.WriteString("\n" + speakerStyle.Render(AgentName+": ") + res.Line)
	}
	return b.String()
}

// bar renders value out of 100 as a fixed-width gauge.
func bar(value, width int) string {
	value = min(100, max(0, value))
	filled := value * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func writeMetadata(s *handlers.SessionView, width int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("STATUS") + "\n\n")

	content.WriteString(fmt.Sprintf("Turn %d of %d\n\n", s.Turn, s.StageCount))

	content.WriteString(userStyle.Render(s.PlayerName) + "\n")
	content.WriteString(fmt.Sprintf("Progress  %s %3d\n", bar(s.Human.Progress, width), s.Human.Progress))
	content.WriteString(fmt.Sprintf("Health    %s %3d\n", bar(s.Human.Health, width), s.Human.Health))
	content.WriteString(fmt.Sprintf("Detection %s %3d\n", bar(s.Human.Detection, width), s.Human.Detection))
	content.WriteString(fmt.Sprintf("Resources %s %3d\n", bar(s.Human.Resources, width), s.Human.Resources))
	content.WriteString(fmt.Sprintf("Errors    %d\n\n", s.Human.Errors))

	for _, o := range s.Opponents {
		content.WriteString(speakerStyle.Render(o.Name) + fmt.Sprintf(" (%s)\n", o.Difficulty))
		if o.Run != nil {
			content.WriteString(fmt.Sprintf("Progress  %s %3d\n", bar(o.Run.Progress, width), o.Run.Progress))
		}
		content.WriteString("\n")
	}

	if len(s.Effects) > 0 {
		content.WriteString("Effects:\n")
		for _, e := range s.Effects {
			content.WriteString(fmt.Sprintf("• %s (%d)\n", e.Kind, e.Remaining))
		}
		content.WriteString("\n")
	}

	n := s.Narrative
	content.WriteString(fmt.Sprintf("Location: %s\nAlert: %d  Clues: %d\nHosts: %d  Creds: %d\n",
		n.CurrentLocation, n.AlertLevel, n.Clues, n.CompromisedHosts, n.CredentialsLeaked))

	content.WriteString("\nCommands:\n")
	content.WriteString("• 1-3: Choose\n")
	content.WriteString("• PgUp/PgDn: Scroll\n")
	content.WriteString("• Esc: Quit\n")
	return content.String()
}

// summaryText is the plain-text result copied to the clipboard.
func summaryText(s *handlers.SessionView) string {
	if s == nil {
		return ""
	}
	elapsed := time.Duration(s.Elapsed * float64(time.Second))
	var b strings.Builder
	fmt.Fprintf(&b, "Cyber Quest: %s as %s\n", s.Scenario, s.RoleTitle)
	fmt.Fprintf(&b, "%s\n", s.Message)
	fmt.Fprintf(&b, "Progress %d%%, %d errors, %d turns, %s\n", s.Human.Progress, s.Human.Errors, s.Turn, ranking.FormatElapsed(elapsed))
	fmt.Fprintf(&b, "Achievement: %s\n", ranking.Achievement(s.Human.Progress, s.Human.Errors, elapsed))
	if s.Outcome == game.OutcomeVictory {
		fmt.Fprintf(&b, "Score: %d\n", ranking.Score(elapsed, s.Human.Errors, true))
	}
	if sum := s.Summary; sum != nil {
		fmt.Fprintf(&b, "Choices: %d of %d succeeded (%.1f%%)\n", sum.SuccessfulChoices, sum.TotalChoices, sum.SuccessRate)
		fmt.Fprintf(&b, "Alert level %d. %s\n", sum.FinalAlertLevel, sum.Outcome)
	}
	return b.String()
}

func (m ConsoleUI) renderSetupModal() string {
	var content strings.Builder

	content.WriteString(modalTitleStyle.Render("Choose Your Role"))
	content.WriteString("\n\n")
	content.WriteString(m.nameInput.View())
	content.WriteString("\n\n")

	for i, r := range m.roles {
		label := r.Title()
		if i == m.selectedRole {
			content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", label)))
		} else {
			content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", label)))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	switch {
	case m.loading:
		content.WriteString(loadingStyle.Render("Generating your story..."))
	case m.err != nil:
		content.WriteString(errorStyle.Render(m.err.Error()))
	default:
		content.WriteString(promptStyle.Render("Use ↑/↓ to pick a role, Enter to start, Esc to exit"))
	}

	return m.place(modalStyle.Width(60).Render(content.String()))
}

func (m ConsoleUI) renderEndModal() string {
	var content strings.Builder
	s := m.session

	title := "Mission Failed"
	if s.Outcome.Won() {
		title = "Mission Complete"
	}
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")
	content.WriteString(wordwrap.String(s.Message, 56))
	content.WriteString("\n\n")
	content.WriteString(summaryText(s))

	if len(m.rankings) > 0 {
		content.WriteString("\n" + titleStyle.Render("Top Operators") + "\n")
		for _, r := range m.rankings {
			content.WriteString(fmt.Sprintf("%d. %-20s %6d  %s\n", r.Rank, r.Player, r.Score, r.Time))
		}
	}
	if m.notice != "" {
		content.WriteString("\n" + loadingStyle.Render(m.notice) + "\n")
	}

	content.WriteString("\n")
	content.WriteString(promptStyle.Render("C to copy summary, N for a new game, Q to quit"))

	return m.place(modalStyle.Width(64).Render(content.String()))
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to abandon the operation?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	return m.place(modalStyle.Width(50).Render(content.String()))
}

func (m ConsoleUI) place(modal string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	switch m.screen {
	case screenSetup:
		return m.renderSetupModal()
	case screenEnd:
		return m.renderEndModal()
	}

	storyWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(m.storyViewport.View())
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.metaViewport.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.storyViewport.Width - 6
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var b strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			b.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			b.WriteString("▓") // Blinking effect at the progress point
		} else {
			b.WriteString("░")
		}
	}
	return separatorStyle.Render(b.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
