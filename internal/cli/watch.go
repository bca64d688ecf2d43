package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphshift/pkg/format"
	"github.com/matzehuels/graphshift/pkg/format/mermaid"
	"github.com/matzehuels/graphshift/pkg/pipeline"
)

// Watch timing: the file is polled every pollInterval, and a change only
// triggers reconversion after debounceQuiet without further changes, so
// editors that write in bursts don't cause flicker.
const (
	pollInterval  = 250 * time.Millisecond
	debounceQuiet = 500 * time.Millisecond
)

// watchCommand creates the watch command for a live three-pane preview.
func (c *CLI) watchCommand() *cobra.Command {
	var fromStr string

	cmd := &cobra.Command{
		Use:   "watch [input]",
		Short: "Live-preview all three grammars while editing a file",
		Long: `Watch an execution-plan file and live-preview it in all three grammars.

The terminal shows one pane per grammar, refreshed whenever the file
changes (debounced). Targets that cannot be produced (a cyclic or
non-series-parallel graph has no task-block form) show their error in
place. Press q to quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := sourceFormat(args[0], fromStr)
			if err != nil {
				return err
			}

			m := newWatchModel(args[0], source, c.Config)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "source grammar: taskseq, dot, mermaid (inferred from extension)")

	return cmd
}

// =============================================================================
// Styles
// =============================================================================

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	watchPaneStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	watchErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	watchDimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// paneOrder maps each grammar to its pane heading, in display order.
var paneOrder = []struct {
	format format.Format
	title  string
}{
	{format.TaskSeq, "Task blocks"},
	{format.DOT, "DOT"},
	{format.Mermaid, "Flowchart"},
}

// =============================================================================
// Model
// =============================================================================

// tickMsg drives the file poll loop.
type tickMsg time.Time

// watchModel is the bubbletea model for the live preview.
type watchModel struct {
	path   string
	source format.Format
	cfg    Config

	lastMod    time.Time
	dirtySince time.Time

	bundle  *pipeline.Bundle
	readErr error

	width  int
	height int
}

func newWatchModel(path string, source format.Format, cfg Config) watchModel {
	return watchModel{path: path, source: source, cfg: cfg}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(tick(), func() tea.Msg { return tickMsg(time.Time{}) })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			// Force an immediate reconvert.
			m.reconvert()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		if m.bundle == nil && m.readErr == nil {
			m.reconvert()
			return m, tick()
		}

		info, err := os.Stat(m.path)
		if err != nil {
			m.readErr = err
			return m, tick()
		}
		if !info.ModTime().Equal(m.lastMod) {
			m.lastMod = info.ModTime()
			m.dirtySince = time.Now()
		}
		if !m.dirtySince.IsZero() && time.Since(m.dirtySince) >= debounceQuiet {
			m.dirtySince = time.Time{}
			m.reconvert()
		}
		return m, tick()
	}
	return m, nil
}

// reconvert reads the file and runs a pure conversion. Watch bypasses the
// cache: the file is local and the conversion is cheap.
func (m *watchModel) reconvert() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		m.readErr = err
		return
	}
	m.readErr = nil

	bundle, err := pipeline.Convert(pipeline.Options{
		SourceFormat: m.source,
		SourceText:   string(data),
		GraphName:    m.cfg.GraphName,
		Orientation:  mermaid.Orientation(m.cfg.Orientation),
	})
	if err != nil {
		m.readErr = err
		return
	}
	m.bundle = bundle
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(watchTitleStyle.Render(fmt.Sprintf("graphshift watch - %s (%s)", m.path, m.source)))
	b.WriteString("\n")
	b.WriteString(watchDimStyle.Render(" r refresh  q quit"))
	b.WriteString("\n")

	if m.readErr != nil {
		b.WriteString(watchErrStyle.Render(fmt.Sprintf("\n  %v\n", m.readErr)))
		return b.String()
	}
	if m.bundle == nil {
		b.WriteString(watchDimStyle.Render("\n  loading...\n"))
		return b.String()
	}

	paneWidth := 40
	if m.width > 0 {
		paneWidth = m.width/len(paneOrder) - 4
		if paneWidth < 20 {
			paneWidth = 20
		}
	}

	panes := make([]string, 0, len(paneOrder))
	for _, p := range paneOrder {
		panes = append(panes, m.renderPane(p.format, p.title, paneWidth))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panes...))
	return b.String()
}

func (m watchModel) renderPane(f format.Format, title string, width int) string {
	body, err := m.bundle.Text(f)
	if err != nil {
		body = watchErrStyle.Render(wordwrap(err.Error(), width))
	}
	content := watchTitleStyle.Render(title) + "\n" + body
	return watchPaneStyle.Width(width).Render(content)
}

// wordwrap breaks long error messages at word boundaries so they fit the
// pane.
func wordwrap(s string, width int) string {
	if width < 8 {
		return s
	}
	var (
		b    strings.Builder
		line int
	)
	for _, word := range strings.Fields(s) {
		if line > 0 && line+len(word)+1 > width {
			b.WriteString("\n")
			line = 0
		} else if line > 0 {
			b.WriteString(" ")
			line++
		}
		b.WriteString(word)
		line += len(word)
	}
	return b.String()
}
