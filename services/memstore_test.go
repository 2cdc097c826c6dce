package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"huddle_server/models"
)

// memStore is an in-memory MembershipStore for tests. It enforces the same
// conditional-write semantics as the DynamoDB implementation under a single
// mutex, so capacity and uniqueness properties can be exercised with real
// concurrency.
type memStore struct {
	mu       sync.Mutex
	profiles map[string]models.UserProfile
	groups   map[string]models.Group
	members  map[string]map[string]models.Membership
	votes    map[string]map[string]models.Vote
	exits    map[string]models.ExitRequest
}

func newMemStore() *memStore {
	return &memStore{
		profiles: map[string]models.UserProfile{},
		groups:   map[string]models.Group{},
		members:  map[string]map[string]models.Membership{},
		votes:    map[string]map[string]models.Vote{},
		exits:    map[string]models.ExitRequest{},
	}
}

func exitKey(userID, groupID string) string {
	return userID + "|" + groupID
}

func (m *memStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	return &profile, nil
}

func (m *memStore) PutProfile(_ context.Context, profile models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *memStore) CountProfiles(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.profiles), nil
}

func (m *memStore) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	return &group, nil
}

func (m *memStore) PutGroup(_ context.Context, group models.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[group.GroupID] = group
	return nil
}

func (m *memStore) ListGroupsByStage(_ context.Context, stage string) ([]models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var groups []models.Group
	for _, group := range m.groups {
		if group.Stage == stage {
			groups = append(groups, group)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})
	return groups, nil
}

func (m *memStore) UpdateGroupLifecycle(_ context.Context, groupID string, update GroupLifecycleUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}

	if update.Stage != "" {
		group.Stage = update.Stage
	}
	if update.VoteDeadline != nil {
		group.VoteDeadline = update.VoteDeadline
	}
	if update.ClearVoteDeadline {
		group.VoteDeadline = nil
	}
	if update.VoteCycle != nil {
		group.VoteCycle = *update.VoteCycle
	}
	if update.Extended != nil {
		group.Extended = *update.Extended
	}
	if update.NextVoteDate != nil {
		group.NextVoteDate = update.NextVoteDate
	}
	if update.ExtendedAt != nil {
		group.ExtendedAt = update.ExtendedAt
	}

	m.groups[groupID] = group
	return nil
}

func (m *memStore) AddMemberIfCapacity(_ context.Context, groupID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if group.Stage != models.StageActive && group.Stage != models.StageExtended {
		return ErrGroupFull
	}
	if group.CurrentMembers >= group.Capacity {
		return ErrGroupFull
	}
	if _, exists := m.members[groupID][userID]; exists {
		return nil
	}

	group.CurrentMembers++
	m.groups[groupID] = group
	if m.members[groupID] == nil {
		m.members[groupID] = map[string]models.Membership{}
	}
	m.members[groupID][userID] = models.Membership{
		GroupID:  groupID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	return nil
}

func (m *memStore) RemoveMember(_ context.Context, groupID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.members[groupID][userID]; !exists {
		return nil
	}
	delete(m.members[groupID], userID)
	if group, ok := m.groups[groupID]; ok && group.CurrentMembers > 0 {
		group.CurrentMembers--
		m.groups[groupID] = group
	}
	return nil
}

func (m *memStore) ListMembers(_ context.Context, groupID string) ([]models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var members []models.Membership
	for _, membership := range m.members[groupID] {
		members = append(members, membership)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].UserID < members[j].UserID
	})
	return members, nil
}

func (m *memStore) MembershipsForUser(_ context.Context, userID string) ([]models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var memberships []models.Membership
	for _, byUser := range m.members {
		if membership, ok := byUser[userID]; ok {
			memberships = append(memberships, membership)
		}
	}
	return memberships, nil
}

func (m *memStore) PutVote(_ context.Context, vote models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.votes[vote.GroupID][vote.VoteKey]; exists {
		return ErrDuplicateVote
	}
	if m.votes[vote.GroupID] == nil {
		m.votes[vote.GroupID] = map[string]models.Vote{}
	}
	m.votes[vote.GroupID][vote.VoteKey] = vote
	return nil
}

func (m *memStore) ListVotes(_ context.Context, groupID string, cycle int) ([]models.Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var votes []models.Vote
	for _, vote := range m.votes[groupID] {
		if vote.Cycle == cycle {
			votes = append(votes, vote)
		}
	}
	return votes, nil
}

func (m *memStore) PutExitRequest(_ context.Context, request models.ExitRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := exitKey(request.UserID, request.GroupID)
	if existing, ok := m.exits[key]; ok && !existing.Processed {
		return nil
	}
	m.exits[key] = request
	return nil
}

func (m *memStore) GetExitRequest(_ context.Context, userID, groupID string) (*models.ExitRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.exits[exitKey(userID, groupID)]
	if !ok {
		return nil, fmt.Errorf("exit request for %s/%s: %w", userID, groupID, ErrNotFound)
	}
	return &request, nil
}

func (m *memStore) MarkExitProcessed(_ context.Context, userID, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := exitKey(userID, groupID)
	request, ok := m.exits[key]
	if !ok || request.Processed {
		return ErrNoOpportunity
	}
	request.Processed = true
	m.exits[key] = request
	return nil
}

// engine bundles the full service graph over a memStore for tests
type engine struct {
	store      *memStore
	profiles   *ProfileService
	modes      *ModeService
	matcher    *MatcherService
	exits      *ExitService
	reshuffler *ReshuffleService
	voting     *VotingService
}

func newEngine() *engine {
	store := newMemStore()
	profiles := &ProfileService{Store: store}
	modes := &ModeService{Store: store}
	matcher := &MatcherService{Store: store, Profiles: profiles}
	exits := &ExitService{Store: store}
	reshuffler := &ReshuffleService{Store: store, Modes: modes, Matcher: matcher, Profiles: profiles}
	voting := &VotingService{Store: store, Exits: exits, Reshuffler: reshuffler}

	return &engine{
		store:      store,
		profiles:   profiles,
		modes:      modes,
		matcher:    matcher,
		exits:      exits,
		reshuffler: reshuffler,
		voting:     voting,
	}
}

// seedProfiles registers n matching-eligible profiles named user-0..n-1
func (e *engine) seedProfiles(n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		userID := fmt.Sprintf("user-%d", i)
		e.store.profiles[userID] = models.UserProfile{
			UserID:          userID,
			UserName:        fmt.Sprintf("member%d", i),
			GenreTags:       []string{"indie", "jazz"},
			PersonalityTags: []string{"night-owl"},
		}
		ids = append(ids, userID)
	}
	return ids
}

// seedGroup stores a group and fills it with the given members
func (e *engine) seedGroup(group models.Group, memberIDs ...string) models.Group {
	group.CurrentMembers = 0
	e.store.groups[group.GroupID] = group
	for _, userID := range memberIDs {
		if err := e.store.AddMemberIfCapacity(context.Background(), group.GroupID, userID); err != nil {
			panic(fmt.Sprintf("seeding member %s into %s: %v", userID, group.GroupID, err))
		}
	}
	return e.store.groups[group.GroupID]
}
