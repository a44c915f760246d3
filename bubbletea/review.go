// Package bubbletea provides an interactive terminal reviewer for graded
// scenario results.
package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/autoeval"
	ui "github.com/fwojciec/autoeval/lipgloss"
)

// Panel identifies which panel is active.
type Panel int

// Panel constants.
const (
	PanelSteps Panel = iota
	PanelReport
)

// Scenario is one graded scenario together with its raw evaluation reports.
type Scenario struct {
	Result  autoeval.ScenarioResult
	Reports map[string]string // Keyed by metric; missing when the report file is gone
}

// Highlighter colors raw report text for display.
type Highlighter interface {
	Highlight(report string) string
}

// ReviewModel is the Bubble Tea model for reviewing graded scenarios.
type ReviewModel struct {
	// Data
	scenarios    []Scenario
	currentIndex int
	metricIndex  int
	threshold    float64

	// UI Components
	stepsViewport  viewport.Model
	reportViewport viewport.Model
	help           help.Model

	// State
	activePanel Panel
	ready       bool
	notice      string

	// Rendering
	width, height int
	renderer      *lipgloss.Renderer
	theme         *ui.Theme
	highlighter   Highlighter
	clipboard     autoeval.Clipboard

	// Keybindings
	keymap KeyMap
}

// ReviewModelOption configures a ReviewModel.
type ReviewModelOption func(*ReviewModel)

// WithRenderer sets the Lipgloss renderer used for styling.
func WithRenderer(r *lipgloss.Renderer) ReviewModelOption {
	return func(m *ReviewModel) {
		m.renderer = r
	}
}

// WithTheme sets the color theme.
func WithTheme(t *ui.Theme) ReviewModelOption {
	return func(m *ReviewModel) {
		m.theme = t
	}
}

// WithHighlighter sets the highlighter applied to report text.
func WithHighlighter(h Highlighter) ReviewModelOption {
	return func(m *ReviewModel) {
		m.highlighter = h
	}
}

// WithClipboard enables copying the raw report of the current metric.
func WithClipboard(c autoeval.Clipboard) ReviewModelOption {
	return func(m *ReviewModel) {
		m.clipboard = c
	}
}

// WithPassThreshold sets the score below which a metric counts as failing.
func WithPassThreshold(v float64) ReviewModelOption {
	return func(m *ReviewModel) {
		m.threshold = v
	}
}

// NewReviewModel creates a new ReviewModel over scenarios.
func NewReviewModel(scenarios []Scenario, opts ...ReviewModelOption) ReviewModel {
	m := ReviewModel{
		scenarios:   scenarios,
		threshold:   ui.DefaultPassThreshold,
		activePanel: PanelSteps,
		help:        help.New(),
		theme:       ui.DefaultTheme(),
		keymap:      DefaultKeyMap(),
	}

	for _, opt := range opts {
		opt(&m)
	}
	if m.renderer == nil {
		m.renderer = lipgloss.DefaultRenderer()
	}

	return m
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if model, cmd, handled := m.handleKeys(msg); handled {
			return model, cmd
		}
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	}

	// Update the active viewport
	var cmd tea.Cmd
	if m.activePanel == PanelSteps {
		m.stepsViewport, cmd = m.stepsViewport.Update(msg)
	} else {
		m.reportViewport, cmd = m.reportViewport.Update(msg)
	}
	return m, cmd
}

func (m ReviewModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	m.notice = ""
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit, true

	case key.Matches(msg, m.keymap.NextScenario):
		if m.currentIndex < len(m.scenarios)-1 {
			m.currentIndex++
			m.updateViewportContent()
		}

	case key.Matches(msg, m.keymap.PrevScenario):
		if m.currentIndex > 0 {
			m.currentIndex--
			m.updateViewportContent()
		}

	case key.Matches(msg, m.keymap.NextFailing):
		if idx := m.findFailing(1); idx != -1 && idx != m.currentIndex {
			m.currentIndex = idx
			m.updateViewportContent()
		}

	case key.Matches(msg, m.keymap.PrevFailing):
		if idx := m.findFailing(-1); idx != -1 && idx != m.currentIndex {
			m.currentIndex = idx
			m.updateViewportContent()
		}

	case key.Matches(msg, m.keymap.NextMetric):
		m.metricIndex++
		m.updateViewportContent()

	case key.Matches(msg, m.keymap.StepsPanel):
		m.activePanel = PanelSteps

	case key.Matches(msg, m.keymap.ReportPanel):
		m.activePanel = PanelReport

	case key.Matches(msg, m.keymap.TogglePanel):
		if m.activePanel == PanelSteps {
			m.activePanel = PanelReport
		} else {
			m.activePanel = PanelSteps
		}

	case key.Matches(msg, m.keymap.CopyReport):
		m.notice = m.copyReport()

	case key.Matches(msg, m.keymap.HalfPageUp):
		m.activeViewport().HalfPageUp()

	case key.Matches(msg, m.keymap.HalfPageDown):
		m.activeViewport().HalfPageDown()

	case key.Matches(msg, m.keymap.GotoTop):
		m.activeViewport().GotoTop()

	case key.Matches(msg, m.keymap.GotoBottom):
		m.activeViewport().GotoBottom()

	default:
		return m, nil, false
	}
	return m, nil, true
}

// copyReport copies the raw report of the current metric and returns a
// notice for the status bar.
func (m ReviewModel) copyReport() string {
	if m.clipboard == nil {
		return "clipboard unavailable"
	}
	metric := m.currentMetric()
	if metric == nil {
		return "nothing to copy"
	}
	report := m.scenarios[m.currentIndex].Reports[metric.Metric]
	if report == "" {
		return "report not available"
	}
	if err := m.clipboard.Copy(report); err != nil {
		return "copy failed: " + err.Error()
	}
	return fmt.Sprintf("copied %s report", metric.Metric)
}

func (m *ReviewModel) activeViewport() *viewport.Model {
	if m.activePanel == PanelSteps {
		return &m.stepsViewport
	}
	return &m.reportViewport
}

func (m *ReviewModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width

	// Reserve: title (1), panel headers (2), status bar (2), spacing (1)
	usableHeight := msg.Height - 6
	if usableHeight < 2 {
		usableHeight = 2 // Minimum height for tiny terminals
	}
	stepsHeight := usableHeight * 50 / 100
	reportHeight := usableHeight - stepsHeight

	if !m.ready {
		m.stepsViewport = viewport.New(msg.Width, stepsHeight)
		m.reportViewport = viewport.New(msg.Width, reportHeight)
		m.ready = true
		m.updateViewportContent()
	} else {
		m.stepsViewport.Width = msg.Width
		m.stepsViewport.Height = stepsHeight
		m.reportViewport.Width = msg.Width
		m.reportViewport.Height = reportHeight
	}

	return m, nil
}

// currentMetric returns the metric result shown for the current scenario.
func (m ReviewModel) currentMetric() *autoeval.MetricResult {
	if len(m.scenarios) == 0 {
		return nil
	}
	metrics := m.scenarios[m.currentIndex].Result.Metrics
	if len(metrics) == 0 {
		return nil
	}
	return &metrics[m.metricIndex%len(metrics)]
}

func (m *ReviewModel) updateViewportContent() {
	metric := m.currentMetric()
	if metric == nil {
		m.stepsViewport.SetContent("No results loaded")
		m.reportViewport.SetContent("")
		return
	}

	pass := m.renderer.NewStyle().Foreground(m.theme.Pass)
	fail := m.renderer.NewStyle().Foreground(m.theme.Fail)
	muted := m.renderer.NewStyle().Foreground(m.theme.Muted)

	var steps strings.Builder
	if metric.PassRate != nil {
		steps.WriteString(fmt.Sprintf("pass rate %.2f\n", *metric.PassRate))
	}
	if metric.Grade != nil && metric.Grade.Score() != 0 {
		steps.WriteString(fmt.Sprintf("grade %d (weighted %.2f)\n", metric.Grade.Score(), metric.Grade.WeightedScore()))
	}
	if len(metric.Steps) == 0 {
		steps.WriteString("[No graded steps]")
	}
	for _, step := range metric.Steps {
		marker := pass.Render("✓")
		if !step.Passed {
			marker = fail.Render("✗")
		}
		steps.WriteString(fmt.Sprintf("%s [w=%g] %s\n", marker, step.Weight, step.Criterion))
		if step.Explanation != "" {
			steps.WriteString(muted.Render("    " + step.Explanation))
			steps.WriteString("\n")
		}
	}
	m.stepsViewport.SetContent(steps.String())
	m.stepsViewport.GotoTop()

	report := m.scenarios[m.currentIndex].Reports[metric.Metric]
	switch {
	case report == "":
		report = "[Report not available]"
	case m.highlighter != nil:
		report = m.highlighter.Highlight(report)
	}
	m.reportViewport.SetContent(report)
	m.reportViewport.GotoTop()
}

// isFailing reports whether any metric of the scenario at idx scores below the threshold.
func (m ReviewModel) isFailing(idx int) bool {
	if idx < 0 || idx >= len(m.scenarios) {
		return false
	}
	for _, metric := range m.scenarios[idx].Result.Metrics {
		if metric.Score < m.threshold {
			return true
		}
	}
	return false
}

// findFailing returns the index of the next (dir 1) or previous (dir -1)
// failing scenario, wrapping around. Returns -1 if none is failing.
func (m ReviewModel) findFailing(dir int) int {
	n := len(m.scenarios)
	for i := 1; i <= n; i++ {
		idx := ((m.currentIndex+dir*i)%n + n) % n
		if m.isFailing(idx) {
			return idx
		}
	}
	return -1
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var s strings.Builder

	s.WriteString(m.renderTitle())
	s.WriteString("\n")

	s.WriteString(m.renderPanelHeader("STEPS", m.activePanel == PanelSteps))
	s.WriteString("\n")
	s.WriteString(m.stepsViewport.View())
	s.WriteString("\n")

	s.WriteString(m.renderPanelHeader("REPORT", m.activePanel == PanelReport))
	s.WriteString("\n")
	s.WriteString(m.reportViewport.View())
	s.WriteString("\n")

	s.WriteString(m.renderStatusBar())
	s.WriteString("\n")
	s.WriteString(m.help.View(m.keymap))

	return s.String()
}

func (m ReviewModel) renderTitle() string {
	metric := m.currentMetric()
	if metric == nil {
		return "No results"
	}
	r := m.scenarios[m.currentIndex].Result
	title := fmt.Sprintf("Scenario %d", r.ScenarioID)
	if r.Metadata.Category != "" {
		title += " · " + r.Metadata.Category
	}
	color := m.theme.Pass
	if metric.Score < m.threshold {
		color = m.theme.Fail
	}
	score := m.renderer.NewStyle().Foreground(color).Render(fmt.Sprintf("%s %.2f", metric.Metric, metric.Score))
	return m.renderer.NewStyle().Bold(true).Foreground(m.theme.Header).Render(title) + "  " + score
}

func (m ReviewModel) renderPanelHeader(name string, active bool) string {
	style := m.renderer.NewStyle().Bold(true)
	if active {
		return style.Render(fmt.Sprintf("%s [active]", name))
	}
	return style.Render(name)
}

func (m ReviewModel) renderStatusBar() string {
	if len(m.scenarios) == 0 {
		return "No scenarios"
	}

	failing := 0
	indicators := make([]string, len(m.scenarios))
	for i := range m.scenarios {
		if m.isFailing(i) {
			failing++
			indicators[i] = "✗"
		} else {
			indicators[i] = "✓"
		}
	}

	position := fmt.Sprintf("scenario %d/%d", m.currentIndex+1, len(m.scenarios))
	summary := fmt.Sprintf("%d failing", failing)
	bar := fmt.Sprintf("%s │ %s │ %s", position, summary, strings.Join(indicators, " "))
	if m.notice != "" {
		bar += " │ " + m.notice
	}
	return bar
}
