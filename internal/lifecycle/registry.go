package lifecycle

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type conversationKey struct {
	userID int64
	id     uuid.UUID
}

// Registry хранит незавершенные диалоги по (userID, conversationID).
// У пользователя одновременно активен только один диалог.
type Registry struct {
	mu            sync.Mutex
	conversations map[conversationKey]*Conversation
	active        map[int64]uuid.UUID
	now           func() time.Time
}

// NewRegistry создает пустой реестр
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		conversations: make(map[conversationKey]*Conversation),
		active:        make(map[int64]uuid.UUID),
		now:           now,
	}
}

// Start начинает новый диалог, вытесняя активный диалог пользователя
func (r *Registry) Start(userID int64, kind Kind, state State) *Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.active[userID]; ok {
		delete(r.conversations, conversationKey{userID, prev})
	}

	now := r.now()
	c := &Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		State:     state,
		StartedAt: now,
		UpdatedAt: now,
	}
	r.conversations[conversationKey{userID, c.ID}] = c
	r.active[userID] = c.ID

	return c
}

// Active возвращает копию активного диалога пользователя
func (r *Registry) Active(userID int64) (Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.activeLocked(userID)
	if c == nil {
		return Conversation{}, false
	}
	return c.snapshot(), true
}

// Get возвращает копию диалога по идентификатору
func (r *Registry) Get(userID int64, id uuid.UUID) (Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[conversationKey{userID, id}]
	if !ok {
		return Conversation{}, false
	}
	return c.snapshot(), true
}

// Update изменяет активный диалог пользователя. Диалог в терминальном
// состоянии после fn удаляется из реестра.
func (r *Registry) Update(userID int64, fn func(c *Conversation)) (Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.activeLocked(userID)
	if c == nil {
		return Conversation{}, false
	}

	fn(c)
	c.UpdatedAt = r.now()
	out := c.snapshot()

	if c.State.IsTerminal() {
		r.removeLocked(userID, c.ID)
	}

	return out, true
}

// Finish удаляет активный диалог пользователя
func (r *Registry) Finish(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.active[userID]
	if !ok {
		return false
	}
	r.removeLocked(userID, id)
	return true
}

// Expire удаляет диалоги, не менявшиеся дольше ttl. Возвращает число удаленных.
func (r *Registry) Expire(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl)
	removed := 0
	for key, c := range r.conversations {
		if c.UpdatedAt.Before(cutoff) {
			r.removeLocked(key.userID, key.id)
			removed++
		}
	}
	return removed
}

// Len возвращает количество активных диалогов
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conversations)
}

func (r *Registry) activeLocked(userID int64) *Conversation {
	id, ok := r.active[userID]
	if !ok {
		return nil
	}
	return r.conversations[conversationKey{userID, id}]
}

func (r *Registry) removeLocked(userID int64, id uuid.UUID) {
	delete(r.conversations, conversationKey{userID, id})
	if r.active[userID] == id {
		delete(r.active, userID)
	}
}
