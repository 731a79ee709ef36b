package dashboard

import (
	"fmt"
	"sync"
)

// GestureState - состояние одного перетаскивания
type GestureState int

const (
	Idle GestureState = iota
	Dragging
	Dropped
	Reordering
	Done
	Failed
)

func (s GestureState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Reordering:
		return "reordering"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("GestureState(%d)", int(s))
	}
}

var transitions = map[GestureState][]GestureState{
	Idle:       {Dragging},
	Dragging:   {Dropped, Idle},
	Dropped:    {Reordering},
	Reordering: {Done, Failed},
	Done:       {Idle},
	Failed:     {Idle},
}

// Gesture - конечный автомат одного жеста:
// Idle -> Dragging -> Dropped -> Reordering -> Done|Failed -> Idle.
// Dragging -> Idle, если элемент отпущен на исходное место
type Gesture struct {
	ID   string
	From int

	mu      sync.Mutex
	state   GestureState
	history []GestureState
	err     error
	done    chan struct{}
}

func newGesture(id string, from int) *Gesture {
	return &Gesture{ID: id, From: from, state: Idle, history: []GestureState{Idle}, done: make(chan struct{})}
}

// State возвращает текущее состояние
func (g *Gesture) State() GestureState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// History возвращает все пройденные состояния по порядку
func (g *Gesture) History() []GestureState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]GestureState(nil), g.history...)
}

// Err - ошибка мутации, если жест закончился в Failed
func (g *Gesture) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Done закрывается, когда жест вернулся в Idle
func (g *Gesture) Done() <-chan struct{} {
	return g.done
}

func (g *Gesture) to(next GestureState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, allowed := range transitions[g.state] {
		if allowed == next {
			g.state = next
			g.history = append(g.history, next)
			if next == Idle {
				close(g.done)
			}
			return nil
		}
	}
	return fmt.Errorf("invalid gesture transition %s -> %s", g.state, next)
}

func (g *Gesture) finish(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
	if err != nil {
		_ = g.to(Failed)
	} else {
		_ = g.to(Done)
	}
	_ = g.to(Idle)
}
