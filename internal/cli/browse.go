package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/photogridlab/photogrid/pkg/gallery"
	"github.com/photogridlab/photogrid/pkg/layout"
	"github.com/photogridlab/photogrid/pkg/pipeline"
)

// Grid styles
var (
	gridCellStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Foreground(colorGray).
			Align(lipgloss.Center)

	gridSelectedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorCyan).
				Foreground(colorWhite).
				Bold(true).
				Align(lipgloss.Center)

	gridDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// GridModel - Interactive layout preview
// =============================================================================

// GridModel is the bubbletea model for browsing a gallery as a laid-out
// grid. Rows are re-solved whenever the terminal is resized, so the
// preview always reflects the layout the current width would produce.
type GridModel struct {
	Gallery gallery.Gallery
	Policy  layout.Policy
	Params  layout.Params
	Layout  gallery.Layout

	Cursor int // selected row
	Height int // visible rows
	Offset int

	termWidth int
}

// NewGridModel creates a grid model and solves the initial layout.
func NewGridModel(g gallery.Gallery, policy layout.Policy, params layout.Params) GridModel {
	m := GridModel{
		Gallery:   g,
		Policy:    policy,
		Params:    params,
		Height:    8,
		termWidth: 80,
	}
	m.resolve()
	return m
}

// resolve recomputes the layout for the current terminal width. The
// solver works in pixels, so terminal columns are mapped onto the
// configured width keeping the row geometry stable.
func (m *GridModel) resolve() {
	params := m.Params
	params.AvailableWidth = float64(m.termWidth-2) * columnsToPixels
	if params.AvailableWidth < params.TargetRowHeight {
		params.AvailableWidth = params.TargetRowHeight
	}
	m.Layout = layout.Build(m.Gallery.Images, m.Policy, params)
}

// columnsToPixels maps one terminal column to layout pixels when
// re-solving on resize. Chosen so an 80-column terminal behaves like a
// typical desktop viewport.
const columnsToPixels = 15.0

func (m GridModel) Init() tea.Cmd {
	return nil
}

func (m GridModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < m.Layout.RowCount()-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "g", "home":
			m.Cursor = 0
			m.Offset = 0
		case "G", "end":
			m.Cursor = m.Layout.RowCount() - 1
			if m.Cursor < 0 {
				m.Cursor = 0
			}
			m.Offset = m.Cursor - m.Height + 1
			if m.Offset < 0 {
				m.Offset = 0
			}
		}
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.Height = (msg.Height - 7) / 4
		if m.Height < 2 {
			m.Height = 2
		}
		m.resolve()
		if m.Cursor >= m.Layout.RowCount() {
			m.Cursor = m.Layout.RowCount() - 1
			if m.Cursor < 0 {
				m.Cursor = 0
			}
		}
		if m.Offset > m.Cursor {
			m.Offset = m.Cursor
		}
	}
	return m, nil
}

func (m GridModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Gallery Preview"))
	b.WriteString("  ")
	b.WriteString(gridDimStyle.Render(filepath.Base(m.Gallery.Root)))
	b.WriteString("\n")
	b.WriteString(gridDimStyle.Render("↑/↓ rows  g/G top/bottom  q quit"))
	b.WriteString("\n\n")

	if m.Layout.RowCount() == 0 {
		b.WriteString(gridDimStyle.Render("  no images"))
		return b.String()
	}

	end := m.Offset + m.Height
	if end > m.Layout.RowCount() {
		end = m.Layout.RowCount()
	}

	usable := m.termWidth - 2
	if usable < 20 {
		usable = 20
	}

	for i := m.Offset; i < end; i++ {
		b.WriteString(m.renderRow(m.Layout.Rows[i], i == m.Cursor, usable))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(gridDimStyle.Render(fmt.Sprintf(
		"  row %d/%d · %d images · %s · %.0fpx",
		m.Cursor+1, m.Layout.RowCount(), m.Layout.ImageCount(), m.Policy, m.Layout.Width)))

	return b.String()
}

// renderRow draws one layout row as a strip of bordered cells whose
// column widths are proportional to the solved pixel widths.
func (m GridModel) renderRow(row gallery.LayoutRow, selected bool, usable int) string {
	style := gridCellStyle
	if selected {
		style = gridSelectedStyle
	}

	rowWidth := row.TotalWidth
	if rowWidth <= 0 {
		rowWidth = 1
	}

	cells := make([]string, 0, len(row.Images))
	for i, img := range row.Images {
		cols := int(float64(usable) * row.Sizes[i].Width / rowWidth)
		if cols < 6 {
			cols = 6
		}
		label := img.ID
		if len(label) > cols-2 {
			label = label[:cols-2]
		}
		cells = append(cells, style.Width(cols-2).Render(label))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// =============================================================================
// browse command
// =============================================================================

// browseCommand creates the browse command for the interactive preview.
func (c *CLI) browseCommand() *cobra.Command {
	var policyName string

	cmd := &cobra.Command{
		Use:   "browse <gallery.json|directory>",
		Short: "Preview a layout interactively in the terminal",
		Long: `Preview a layout interactively in the terminal.

Rows are rendered as proportional cells and re-solved on every terminal
resize, which makes it easy to see how a policy reflows across widths.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], policyName)
		},
	}

	cmd.Flags().StringVarP(&policyName, "policy", "p", "", "layout policy (justified, fixed-grid)")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input, policyName string) error {
	opts := pipeline.Options{Logger: c.Logger}
	c.Config.ApplyTo(&opts)
	if policyName != "" {
		opts.Policy = layout.Policy(policyName)
	}
	opts.SetLayoutDefaults()
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}

	runner, err := c.newRunner(true)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, err := c.loadGallery(ctx, runner, input, &opts)
	if err != nil {
		return err
	}
	if len(g.Images) == 0 {
		printWarning("No images found in %s", input)
		return nil
	}

	model := NewGridModel(*g, opts.Policy, opts.LayoutParams())
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}
