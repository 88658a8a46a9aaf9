package bot

import "sync"

// pendingKind marks which amount dialogue a chat is in the middle of.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingIncome
	pendingExpense
)

// pendingInputs tracks per-chat dialogue state: after /income or /expense the
// next plain message is interpreted as an amount. This is in-process UI state
// only; losing it on restart just means the user re-issues the command.
type pendingInputs struct {
	mu    sync.Mutex
	state map[int64]pendingKind
}

func newPendingInputs() *pendingInputs {
	return &pendingInputs{state: make(map[int64]pendingKind)}
}

func (p *pendingInputs) set(chatID int64, kind pendingKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state[chatID] = kind
}

// take returns the chat's pending kind and clears it.
func (p *pendingInputs) take(chatID int64) pendingKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kind := p.state[chatID]
	delete(p.state, chatID)
	return kind
}

// clear drops the chat's pending state, reporting whether there was any.
func (p *pendingInputs) clear(chatID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	kind, ok := p.state[chatID]
	delete(p.state, chatID)
	return ok && kind != pendingNone
}
