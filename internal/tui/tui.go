// Package tui is a terminal presenter for a game.
package tui

import (
	"context"
	"errors"
	"fmt"

	"emittr/fourinarow/internal/game"

	"github.com/gdamore/tcell/v2"
)

// ErrQuit is returned when the player leaves mid-game.
var ErrQuit = errors.New("player quit")

const (
	padTop    = 2
	padLeft   = 2
	cellWidth = 3
)

// Presenter draws the board on a tcell screen and reads columns from the
// keyboard.
type Presenter struct {
	screen tcell.Screen
	grid   *game.Grid
	cursor int
	status string
}

// New takes ownership of an initialised screen.
func New(screen tcell.Screen) *Presenter {
	return &Presenter{screen: screen, cursor: -1}
}

// Open creates and initialises the terminal screen.
func Open() (*Presenter, error) {
	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("screen init: %w", err)
	}
	return New(screen), nil
}

func (p *Presenter) Close() {
	p.screen.Fini()
}

func (p *Presenter) RenderBoard(g *game.Grid) {
	p.grid = g
	if p.cursor < 0 {
		p.cursor = g.Rules().CenterColumn()
	}
	p.draw()
}

func (p *Presenter) RequestHumanMove(ctx context.Context) (int, error) {
	p.status = "Your move: ←/→ or 1-9, Enter to drop, q to quit"
	p.draw()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = p.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-stop:
		}
	}()

	columns := p.grid.Rules().Columns
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return game.NoColumn, ErrQuit
		}
		if err := ctx.Err(); err != nil {
			return game.NoColumn, err
		}
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			if _, resized := ev.(*tcell.EventResize); resized {
				p.screen.Sync()
				p.draw()
			}
			continue
		}
		switch key.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return game.NoColumn, ErrQuit
		case tcell.KeyLeft:
			if p.cursor > 0 {
				p.cursor--
			}
		case tcell.KeyRight:
			if p.cursor < columns-1 {
				p.cursor++
			}
		case tcell.KeyEnter, tcell.KeyDown:
			return p.pick(p.cursor), nil
		case tcell.KeyRune:
			r := key.Rune()
			switch {
			case r == 'q':
				return game.NoColumn, ErrQuit
			case r == ' ':
				return p.pick(p.cursor), nil
			case r >= '1' && r <= '9':
				return p.pick(int(r - '1')), nil
			}
		}
		p.draw()
	}
}

func (p *Presenter) pick(col int) int {
	if !p.grid.IsColumnOpen(col) {
		p.screen.Beep()
	}
	if col >= 0 && col < p.grid.Rules().Columns {
		p.cursor = col
	}
	p.status = "Thinking..."
	p.draw()
	return col
}

func (p *Presenter) AnnounceResult(r game.Result) {
	switch r {
	case game.PlayerAWins:
		p.status = "You win!!"
	case game.PlayerBWins:
		p.status = "Computer wins!!"
	default:
		p.status = "It's a draw!!"
	}
	p.status += "  (press any key)"
	p.draw()
}

// WaitForKey blocks until a key is pressed.
func (p *Presenter) WaitForKey() {
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return
		}
		if _, ok := ev.(*tcell.EventKey); ok {
			return
		}
	}
}

func (p *Presenter) draw() {
	if p.grid == nil {
		return
	}
	s := p.screen
	s.Clear()
	base := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	board := base.Foreground(tcell.ColorBlue)
	human := base.Foreground(tcell.ColorRed)
	engine := base.Foreground(tcell.ColorYellow)
	highlight := base.Reverse(true)

	rules := p.grid.Rules()
	winning := map[game.Cell]bool{}
	if w := p.grid.Result().Winner(); w != game.Empty {
		cells, _ := p.grid.WinningRun(w)
		for _, c := range cells {
			winning[c] = true
		}
	}

	p.text(padLeft, 0, "Four in a row", base)
	if p.cursor >= 0 {
		p.text(padLeft+p.cursor*cellWidth+1, padTop-1, "v", base)
	}
	for i, row := range p.grid.Rows() {
		y := padTop + i
		for col, piece := range row {
			x := padLeft + col*cellWidth
			style, r := board, '.'
			switch piece {
			case game.PlayerA:
				style, r = human, 'X'
			case game.PlayerB:
				style, r = engine, 'O'
			}
			if winning[game.Cell{Row: rules.Rows - 1 - i, Col: col}] {
				style = highlight
			}
			s.SetContent(x, y, '[', nil, board)
			s.SetContent(x+1, y, r, nil, style)
			s.SetContent(x+2, y, ']', nil, board)
		}
	}
	for col := 0; col < rules.Columns; col++ {
		p.text(padLeft+col*cellWidth+1, padTop+rules.Rows, fmt.Sprintf("%d", (col+1)%10), base)
	}
	p.text(padLeft, padTop+rules.Rows+2, p.status, base)
	s.Show()
}

func (p *Presenter) text(x, y int, str string, style tcell.Style) {
	for _, r := range str {
		p.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
