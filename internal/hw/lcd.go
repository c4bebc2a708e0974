package hw

import (
	"errors"
	"fmt"
	"sync"
)

// Panel is a 16x2 character display.
type Panel interface {
	Write(line1, line2 string) error
	Clear() error
}

// LCD powers the panel on demand and normalizes text before writing it.
// It is safe for concurrent use: the supervisor and the LCD command relay
// share it.
type LCD struct {
	mx    sync.Mutex
	board *Board
	panel Panel
	on    bool
}

func NewLCD(board *Board, panel Panel) *LCD {
	return &LCD{board: board, panel: panel}
}

func (l *LCD) Display(line1, line2 string) error {
	l.mx.Lock()
	defer l.mx.Unlock()
	if !l.on {
		if err := l.board.write(l.board.Map.LCDPower, true); err != nil {
			return fmt.Errorf("lcd power on: %w", err)
		}
		l.on = true
	}
	return l.panel.Write(Normalize(line1), Normalize(line2))
}

// Off clears the panel and cuts its power.
func (l *LCD) Off() error {
	l.mx.Lock()
	defer l.mx.Unlock()
	var err error
	if l.on {
		err = l.panel.Clear()
	}
	l.on = false
	return errors.Join(err, l.board.write(l.board.Map.LCDPower, false))
}
