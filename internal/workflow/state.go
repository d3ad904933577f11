package workflow

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/campaignly/campaignly/internal/models"
)

// State is the per-campaign review state: the approval gates, the feedback
// notes, and the drafts awaiting review. It mirrors into persisted records as
// approvals happen but is itself the authoritative gate for launch.
type State struct {
	CampaignID       string         `json:"campaign_id"`
	NumRequested     int            `json:"num_requested"`
	StrategyApproved bool           `json:"strategy_approved"`
	ApprovedNumbers  map[int]bool   `json:"approved_numbers"`
	Feedback         map[int]string `json:"feedback"`
	Drafts           []models.Draft `json:"drafts"`
	Deleted          bool           `json:"deleted"`
	Progress         []string       `json:"progress,omitempty"`
}

func newState(campaignID string, numRequested int) *State {
	return &State{
		CampaignID:      campaignID,
		NumRequested:    numRequested,
		ApprovedNumbers: make(map[int]bool),
		Feedback:        make(map[int]string),
	}
}

// ApprovedCount returns the number of distinct approved email numbers.
func (s *State) ApprovedCount() int {
	return len(s.ApprovedNumbers)
}

// ApprovedList returns the approved numbers in ascending order.
func (s *State) ApprovedList() []int {
	nums := make([]int, 0, len(s.ApprovedNumbers))
	for n := range s.ApprovedNumbers {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Launchable reports whether the launch gate is open: strategy approved and
// every requested email approved. Re-evaluated on every approval action.
func (s *State) Launchable() bool {
	return s.StrategyApproved && s.ApprovedCount() == s.NumRequested && !s.Deleted
}

// RemainingMessage describes what still blocks the launch, or "" when the
// campaign is launchable.
func (s *State) RemainingMessage() string {
	if s.Launchable() {
		return ""
	}
	var parts []string
	if !s.StrategyApproved {
		parts = append(parts, "approve the strategy")
	}
	if remaining := s.NumRequested - s.ApprovedCount(); remaining > 0 {
		plural := ""
		if remaining > 1 {
			plural = "s"
		}
		parts = append(parts, fmt.Sprintf("approve %d more email%s", remaining, plural))
	}
	return strings.Join(parts, " and ")
}

// Draft returns the pending draft with the given number, or nil.
func (s *State) Draft(number int) *models.Draft {
	for i := range s.Drafts {
		if s.Drafts[i].Number == number {
			return &s.Drafts[i]
		}
	}
	return nil
}

// StateStore persists review state between requests, keyed by campaign ID.
type StateStore interface {
	Get(campaignID string) (*State, error)
	Put(state *State) error
	Delete(campaignID string) error
}

// MemoryStore is an in-process StateStore. State does not survive restarts;
// the bolt store does.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

func (m *MemoryStore) Get(campaignID string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[campaignID]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (m *MemoryStore) Put(state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.CampaignID] = state
	return nil
}

func (m *MemoryStore) Delete(campaignID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, campaignID)
	return nil
}
