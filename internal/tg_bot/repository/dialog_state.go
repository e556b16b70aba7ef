// Package repository provides the storage of the transit bot: the in-memory conversation state of
// every chat and the user profile stores (JSON file, SQL database, Redis).
package repository

import (
	"sync"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
)

// DialogStates keeps the conversation state of every chat in memory. Chats without an entry are Idle.
type DialogStates struct {
	states map[int64]models.DialogState // Conversation state by chat ID.
	mu     *sync.RWMutex                // Protects states from concurrent access
}

// NewDialogStates creates an empty DialogStates.
func NewDialogStates() *DialogStates {
	return &DialogStates{
		states: make(map[int64]models.DialogState),
		mu:     &sync.RWMutex{},
	}
}

// Load returns the state of the chat, Idle when none is stored.
func (m *DialogStates) Load(chatID int64) models.DialogState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.states[chatID]; ok {
		return s
	}
	return models.Idle{}
}

// Store replaces the state of the chat. Idle states are dropped from the map.
func (m *DialogStates) Store(chatID int64, state models.DialogState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state == nil || state.Kind() == models.StateIdle {
		delete(m.states, chatID)
		return
	}
	m.states[chatID] = state
}

// ResetIfTracking moves the chat back to Idle when it is still Tracking and reports whether it did.
// Used when a tracking session ends by itself.
func (m *DialogStates) ResetIfTracking(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[chatID]
	if !ok || s.Kind() != models.StateTracking {
		return false
	}
	delete(m.states, chatID)
	return true
}

// Len returns the number of chats in a non-idle state.
func (m *DialogStates) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
