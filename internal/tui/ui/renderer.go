// Package ui draws the prompt and its suggestion overlay using relative
// cursor motion only, so the prompt can live below ordinary scrolled output.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/hy4ri/slack-tui/internal/tui/state"
	"github.com/hy4ri/slack-tui/internal/tui/styles"
	"github.com/hy4ri/slack-tui/internal/tui/utils"
)

// DefaultMaxItems bounds the number of overlay rows.
const DefaultMaxItems = 8

// Renderer repaints the prompt region. It remembers the geometry of the last
// frame so the next frame can find its top again.
type Renderer struct {
	out      io.Writer
	Layout   Layout
	MaxItems int

	geo   state.Geometry
	label string
}

// NewRenderer returns a renderer writing to out.
func NewRenderer(out io.Writer, width int) *Renderer {
	return &Renderer{
		out:      out,
		Layout:   Layout{Width: width, Marker: DefaultMarker, Indent: DefaultIndent},
		MaxItems: DefaultMaxItems,
	}
}

// Geometry returns what the renderer remembers about the last frame.
func (r *Renderer) Geometry() state.Geometry { return r.geo }

// SetWidth updates the terminal width used for wrapping.
func (r *Renderer) SetWidth(w int) {
	if w > 0 {
		r.Layout.Width = w
	}
}

// SetLabel sets a one-line heading drawn above the input, such as the
// channel-switch prompt text. It is part of the tracked region.
func (r *Renderer) SetLabel(label string) { r.label = label }

// Redraw erases the previous frame and draws buf plus the overlay, leaving
// the terminal cursor at the buffer's cursor.
func (r *Renderer) Redraw(buf state.EditBuffer, sug state.Suggestions) (state.Geometry, error) {
	var b strings.Builder
	r.toTop(&b)
	b.WriteString(termenv.CSI + fmt.Sprintf(termenv.EraseDisplaySeq, 0))

	labelRows := 0
	if r.label != "" {
		b.WriteString(styles.PromptLabel.Render(utils.TruncateString(r.label, r.Layout.Width)))
		b.WriteString("\r\n")
		labelRows = 1
	}

	for i, line := range strings.Split(buf.String(), "\n") {
		if i == 0 {
			b.WriteString(styles.PromptMarker.Render(r.Layout.Marker))
		} else {
			b.WriteString("\r\n")
			b.WriteString(r.Layout.Indent)
		}
		b.WriteString(line)
	}

	p := r.Layout.Place(buf.Text, buf.Cursor)
	below := p.Rows - 1 - p.CursorRow

	if sug.Visible() {
		for _, row := range r.overlayRows(sug) {
			b.WriteString("\r\n")
			b.WriteString(row)
			below++
		}
	}

	if below > 0 {
		b.WriteString(termenv.CSI + fmt.Sprintf(termenv.CursorUpSeq, below))
	}
	b.WriteString("\r")
	if p.CursorCol > 0 {
		b.WriteString(termenv.CSI + fmt.Sprintf(termenv.CursorForwardSeq, p.CursorCol))
	}

	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return r.geo, fmt.Errorf("redraw prompt: %w", err)
	}
	r.geo = state.Geometry{Rows: p.Rows + labelRows, CursorRow: p.CursorRow + labelRows}
	return r.geo, nil
}

// Clear erases the prompt region and leaves the cursor at its top-left, ready
// for other output. The geometry is forgotten.
func (r *Renderer) Clear() error {
	var b strings.Builder
	r.toTop(&b)
	b.WriteString(termenv.CSI + fmt.Sprintf(termenv.EraseDisplaySeq, 0))
	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return fmt.Errorf("clear prompt: %w", err)
	}
	r.Reset()
	return nil
}

// Finish draws buf one last time without an overlay and moves below it, so
// the resolved input stays on screen as ordinary output.
func (r *Renderer) Finish(buf state.EditBuffer) error {
	geo, err := r.Redraw(buf, state.NewSuggestions())
	if err != nil {
		return err
	}
	var b strings.Builder
	if down := geo.Rows - 1 - geo.CursorRow; down > 0 {
		b.WriteString(termenv.CSI + fmt.Sprintf(termenv.CursorDownSeq, down))
	}
	b.WriteString("\r\n")
	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return fmt.Errorf("finish prompt: %w", err)
	}
	r.Reset()
	return nil
}

// Reset forgets the previous frame. The next Redraw starts at the cursor's
// current row.
func (r *Renderer) Reset() { r.geo = state.Geometry{} }

func (r *Renderer) toTop(b *strings.Builder) {
	if r.geo.CursorRow > 0 {
		b.WriteString(termenv.CSI + fmt.Sprintf(termenv.CursorUpSeq, r.geo.CursorRow))
	}
	b.WriteString("\r")
}

func (r *Renderer) overlayRows(sug state.Suggestions) []string {
	width := r.Layout.Width
	rows := []string{styles.SuggestionHeader.Render(utils.TruncateString(overlayHeader(sug), width))}

	if len(sug.Items) == 0 {
		rows = append(rows, styles.SuggestionNotice.Render(utils.TruncateString(sug.Notice, width)))
		return rows
	}

	limit := r.MaxItems
	if limit <= 0 || limit > len(sug.Items) {
		limit = len(sug.Items)
	}
	first := 0
	if sug.Selected >= limit {
		first = sug.Selected - limit + 1
	}
	for i := first; i < first+limit; i++ {
		text := utils.TruncateString("  "+sug.Items[i].Label(), width)
		style := styles.Suggestion
		if i == sug.Selected {
			style = styles.SuggestionSelected
		}
		rows = append(rows, style.Render(text))
	}
	return rows
}

func overlayHeader(sug state.Suggestions) string {
	var kind string
	switch sug.Type {
	case state.ContextCommand:
		kind = "Commands"
	case state.ContextChannel:
		kind = "Channels"
	case state.ContextMention:
		kind = "Mentions"
	default:
		kind = "Suggestions"
	}
	if len(sug.Items) == 0 {
		return kind
	}
	return fmt.Sprintf("%s (%d/%d, Tab to pick)", kind, sug.Selected+1, len(sug.Items))
}
