// Package chat holds the conversation data model and the manager that
// owns the in-memory conversation list for the UI. The manager applies
// mutations synchronously and persists the whole snapshot through an
// injected Store, coalescing bursts of mutations into a single
// debounced write.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/chatvault/pkg/logging"
)

// placeholderTitle is used for new conversations until a real title is
// set or derived.
const placeholderTitle = "New Chat"

// maxDerivedTitleLen caps titles derived from the first user message.
const maxDerivedTitleLen = 42

// ModelProvider supplies the currently selected model identifier. It is
// read at conversation-creation time, never cached by the manager.
type ModelProvider interface {
	SelectedModel() string
}

// Preferences exposes the user preferences the manager consults.
type Preferences interface {
	// AutoGenerateTitle reports whether conversation titles should be
	// derived from the first user message instead of the placeholder.
	AutoGenerateTitle() bool
}

// Options tunes manager construction.
type Options struct {
	// SaveDebounce is the quiet period before a dirty snapshot is
	// persisted. Zero is valid and fires on the next scheduler tick,
	// which keeps tests deterministic.
	SaveDebounce time.Duration

	// Logger receives diagnostic output. May be nil.
	Logger *logging.Logger

	// EventBuffer sizes the event channel. Defaults to 16. Events are
	// dropped, never blocked on, when the buffer is full.
	EventBuffer int
}

// SaveHandle is an awaitable unit of persistence work.
type SaveHandle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the save finishes or ctx is done, returning the
// save error if any.
func (h *SaveHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manager owns the authoritative in-memory conversation snapshot.
//
// All mutation and query methods are safe for concurrent use: the
// snapshot is guarded by a mutex because the debounce timer fires on a
// background goroutine. Persistence never blocks mutation callers;
// saves run on background goroutines, serialized so a later-scheduled
// save can never overwrite newer data with older.
type Manager struct {
	store  Store
	models ModelProvider
	prefs  Preferences
	logger *logging.Logger

	debounce time.Duration

	mu            sync.RWMutex
	conversations []*Conversation
	generation    uint64      // bumped on every mutation; stale timers check it
	timer         *time.Timer // armed trailing-edge debounce timer, nil when idle

	// Background store operations (saves and the clear's file deletion)
	// run in ticket order. A plain mutex is not enough here: Go mutexes
	// do not hand off FIFO, so a save submitted after a clear could
	// otherwise win the lock and have its write erased by the
	// earlier-submitted deletion.
	opMu      sync.Mutex
	opCond    *sync.Cond
	opNext    uint64 // next ticket to issue
	opServing uint64 // ticket currently allowed to run

	loadDone     chan struct{}
	loadErr      error
	suppressLoad bool // ClearAll before the load finished; discard the loaded snapshot

	events chan Event
}

// NewManager creates a manager and begins the startup load in the
// background. Use WaitUntilLoaded to await it; until it completes the
// snapshot is empty.
func NewManager(store Store, models ModelProvider, prefs Preferences, opts Options) *Manager {
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = 16
	}
	m := &Manager{
		store:         store,
		models:        models,
		prefs:         prefs,
		logger:        opts.Logger,
		debounce:      opts.SaveDebounce,
		conversations: []*Conversation{},
		loadDone:      make(chan struct{}),
		events:        make(chan Event, buffer),
	}
	m.opCond = sync.NewCond(&m.opMu)
	go m.runStartupLoad()
	return m
}

// Events returns the channel on which the manager reports persistence
// outcomes to the UI layer.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// WaitUntilLoaded blocks until the startup load has finished or ctx is
// done. A load failure is reported here and via Events; the manager
// stays usable with an empty snapshot either way.
func (m *Manager) WaitUntilLoaded(ctx context.Context) error {
	select {
	case <-m.loadDone:
		return m.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) runStartupLoad() {
	defer close(m.loadDone)

	loaded, err := m.store.Load(context.Background())
	if err != nil {
		m.loadErr = err
		m.logErrorf("startup load failed, keeping empty snapshot: %v", err)
		m.emit(Event{Type: EventLoadFailed, Err: err})
		return
	}

	m.mu.Lock()
	if m.suppressLoad {
		// The user cleared everything while the load was in flight; the
		// empty snapshot wins.
		m.mu.Unlock()
		return
	}
	// Conversations created before the load finished stay at the front;
	// the loaded snapshot is published behind them.
	m.conversations = append(m.conversations, loaded...)
	count := len(m.conversations)
	m.mu.Unlock()

	m.logDebugf("startup load complete: %d conversations", count)
	m.emit(Event{Type: EventLoaded, Conversations: count})
}

// Conversations returns a deep copy of the current snapshot, most
// recent first.
func (m *Manager) Conversations() []*Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return CloneAll(m.conversations)
}

// Conversation returns a deep copy of the conversation with the given
// identifier, or nil if it does not exist.
func (m *Manager) Conversation(id string) *Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if c := m.findLocked(id); c != nil {
		return c.Clone()
	}
	return nil
}

// CreateConversation builds a new conversation with a fresh identifier,
// the currently selected model, and a placeholder title, inserts it as
// the most-recent entry, and schedules a debounced save. The returned
// conversation is a copy; further mutation goes through the manager.
func (m *Manager) CreateConversation() *Conversation {
	model := ""
	if m.models != nil {
		model = m.models.SelectedModel()
	}
	conv := NewConversation(placeholderTitle, model)

	m.mu.Lock()
	m.conversations = append([]*Conversation{conv}, m.conversations...)
	m.scheduleSaveLocked()
	m.mu.Unlock()

	m.logDebugf("created conversation %s (model %q)", conv.ID, model)
	return conv.Clone()
}

// AddMessage appends msg to the identified conversation, bumps its
// UpdatedAt, and schedules a debounced save. Adding to an unknown
// conversation is a no-op.
func (m *Manager) AddMessage(conversationID string, msg *Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv := m.findLocked(conversationID)
	if conv == nil {
		m.logDebugf("add message: conversation %s not found, ignoring", conversationID)
		return
	}

	dup := *msg
	conv.Messages = append(conv.Messages, &dup)
	conv.Touch()

	if m.prefs != nil && m.prefs.AutoGenerateTitle() &&
		conv.Title == placeholderTitle && msg.Role == RoleUser {
		conv.Title = deriveTitle(msg.Content)
	}

	m.scheduleSaveLocked()
}

// AppendToMessage extends the content of an existing message in place,
// the streaming path for token-by-token assistant output. Each call
// dirties the snapshot; the debounce window coalesces the burst into
// one disk write. Unknown conversation or message identifiers are
// no-ops.
func (m *Manager) AppendToMessage(conversationID, messageID, delta string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv := m.findLocked(conversationID)
	if conv == nil {
		return
	}
	for _, msg := range conv.Messages {
		if msg.ID == messageID {
			msg.Content += delta
			conv.Touch()
			m.scheduleSaveLocked()
			return
		}
	}
}

// RenameConversation sets a new title on the identified conversation
// and schedules a debounced save. Unknown identifiers are no-ops.
func (m *Manager) RenameConversation(conversationID, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv := m.findLocked(conversationID)
	if conv == nil {
		return
	}
	conv.Title = title
	conv.Touch()
	m.scheduleSaveLocked()
}

// SaveNow persists the current full snapshot immediately, bypassing the
// debounce window. Any pending debounced save is superseded so a
// stale, earlier-armed timer can never later overwrite the snapshot
// with older data. The returned handle resolves when the write
// finishes.
func (m *Manager) SaveNow() *SaveHandle {
	m.mu.Lock()
	m.invalidateTimerLocked()
	m.mu.Unlock()

	ticket := m.nextTicket()
	h := &SaveHandle{done: make(chan struct{})}
	go func() {
		h.err = m.persist(ticket, 0, true)
		close(h.done)
	}()
	return h
}

// ClearAll empties the in-memory snapshot synchronously and deletes the
// persisted file in the background. The in-memory clear always
// succeeds; a failed file deletion is reported via Events and logged,
// nothing more.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	m.conversations = []*Conversation{}
	m.suppressLoad = true
	m.invalidateTimerLocked()
	m.mu.Unlock()

	// The ticket is taken synchronously so the deletion keeps its place
	// in the submission order ahead of any save requested after it.
	ticket := m.nextTicket()
	go func() {
		<-m.loadDone

		m.acquireTurn(ticket)
		err := m.store.Clear(context.Background())
		m.releaseTurn()

		if err != nil {
			m.logErrorf("failed to delete persisted snapshot: %v", err)
			m.emit(Event{Type: EventClearFailed, Err: err})
			return
		}
		m.emit(Event{Type: EventCleared})
	}()
}

// Search returns the conversations whose title or any message content
// contains query as a case-insensitive substring, preserving the
// snapshot's relative order. An empty query matches nothing.
func (m *Manager) Search(query string) []*Conversation {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []*Conversation{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Conversation
	for _, conv := range m.conversations {
		if conversationMatches(conv, query) {
			out = append(out, conv.Clone())
		}
	}
	if out == nil {
		out = []*Conversation{}
	}
	return out
}

func conversationMatches(conv *Conversation, loweredQuery string) bool {
	if strings.Contains(strings.ToLower(conv.Title), loweredQuery) {
		return true
	}
	for _, msg := range conv.Messages {
		if strings.Contains(strings.ToLower(msg.Content), loweredQuery) {
			return true
		}
	}
	return false
}

func (m *Manager) findLocked(id string) *Conversation {
	for _, conv := range m.conversations {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// invalidateTimerLocked advances the generation and stops any armed
// debounce timer so in-flight timer goroutines become stale. Callers
// hold m.mu.
func (m *Manager) invalidateTimerLocked() {
	m.generation++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// scheduleSaveLocked (re-)arms the trailing-edge debounce timer.
// Callers hold m.mu. Only the state at the moment the timer finally
// fires is persisted; intermediate states within the window never hit
// disk.
func (m *Manager) scheduleSaveLocked() {
	m.invalidateTimerLocked()
	gen := m.generation
	m.timer = time.AfterFunc(m.debounce, func() {
		// A debounced save is submitted when its quiet window elapses,
		// so the ticket is taken at fire time.
		if err := m.persist(m.nextTicket(), gen, false); err != nil {
			m.logErrorf("debounced save failed: %v", err)
		}
	})
}

// nextTicket issues the submission-order ticket for a background store
// operation.
func (m *Manager) nextTicket() uint64 {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	ticket := m.opNext
	m.opNext++
	return ticket
}

// acquireTurn blocks until every operation submitted before ticket has
// finished.
func (m *Manager) acquireTurn(ticket uint64) {
	m.opMu.Lock()
	for m.opServing != ticket {
		m.opCond.Wait()
	}
	m.opMu.Unlock()
}

// releaseTurn hands execution to the next submitted operation.
func (m *Manager) releaseTurn() {
	m.opMu.Lock()
	m.opServing++
	m.opCond.Broadcast()
	m.opMu.Unlock()
}

// persist writes the current snapshot through the store. Debounced
// callers pass their generation and are skipped when superseded;
// immediate callers pass force and always write the state current at
// write time. Saves wait for the startup load so they never observe a
// torn, mid-load snapshot, and the ticket keeps store operations in
// submission order.
func (m *Manager) persist(ticket, gen uint64, force bool) error {
	<-m.loadDone

	m.acquireTurn(ticket)
	defer m.releaseTurn()

	m.mu.RLock()
	if !force && gen != m.generation {
		m.mu.RUnlock()
		return nil // superseded by a later mutation or an immediate save
	}
	snapshot := CloneAll(m.conversations)
	m.mu.RUnlock()

	if err := m.store.Save(context.Background(), snapshot); err != nil {
		m.emit(Event{Type: EventSaveFailed, Err: err})
		return err
	}
	m.logDebugf("persisted snapshot: %d conversations", len(snapshot))
	m.emit(Event{Type: EventSaved, Conversations: len(snapshot)})
	return nil
}

// emit delivers an event without ever blocking a persistence path.
func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
	}
}

func (m *Manager) logDebugf(format string, v ...any) {
	if m.logger != nil {
		m.logger.Debugf(format, v...)
	}
}

func (m *Manager) logErrorf(format string, v ...any) {
	if m.logger != nil {
		m.logger.Errorf(format, v...)
	}
}

// deriveTitle builds a display title from the first user message.
func deriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if title == "" {
		return placeholderTitle
	}
	runes := []rune(title)
	if len(runes) > maxDerivedTitleLen {
		title = strings.TrimSpace(string(runes[:maxDerivedTitleLen])) + "…"
	}
	return title
}
