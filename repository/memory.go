package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daystep/daystep/models"
)

// MemoryStore is an in-memory implementation of every repository interface,
// exposed through per-entity views (Users, Challenges, ...). It enforces
// the same uniqueness constraints as the SQL schema under a single mutex,
// which makes it a faithful stand-in for concurrency tests and for
// exercising the engines without a database.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[string]models.User
	challenges  map[string]models.Challenge
	assignments map[string]models.DailyAssignment
	userDay     map[string]string // userID+"|"+day -> assignment id
	stats       map[string]models.UserStats
	wins        map[string]models.Win
	winEvents   []models.WinEvent
	journal     map[string]models.JournalEntry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       map[string]models.User{},
		challenges:  map[string]models.Challenge{},
		assignments: map[string]models.DailyAssignment{},
		userDay:     map[string]string{},
		stats:       map[string]models.UserStats{},
		wins:        map[string]models.Win{},
		journal:     map[string]models.JournalEntry{},
	}
}

// Users returns the UserRepo view.
func (m *MemoryStore) Users() UserRepo { return memUsers{m} }

// Challenges returns the ChallengeRepo view.
func (m *MemoryStore) Challenges() ChallengeRepo { return memChallenges{m} }

// Assignments returns the AssignmentRepo view.
func (m *MemoryStore) Assignments() AssignmentRepo { return memAssignments{m} }

// Stats returns the StatsRepo view.
func (m *MemoryStore) Stats() StatsRepo { return memStats{m} }

// Wins returns the WinRepo view.
func (m *MemoryStore) Wins() WinRepo { return memWins{m} }

// Journal returns the JournalRepo view.
func (m *MemoryStore) Journal() JournalRepo { return memJournal{m} }

// AddChallenge seeds a challenge directly, assigning an id when missing.
func (m *MemoryStore) AddChallenge(ch models.Challenge) models.Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	m.challenges[ch.ID] = ch
	return ch
}

func memDayKey(userID, day string) string { return userID + "|" + day }

// --- UserRepo view ---

type memUsers struct{ s *MemoryStore }

func (v memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	u, ok := v.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (v memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, u := range v.s.users {
		if u.Email != nil && *u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (v memUsers) FindByProvider(_ context.Context, provider, providerID string) (*models.User, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, u := range v.s.users {
		if u.Provider == provider && u.ProviderID == providerID {
			c := u
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (v memUsers) Create(_ context.Context, user *models.User) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := v.s.users[user.ID]; ok {
		return ErrDuplicate
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	v.s.users[user.ID] = *user
	return nil
}

func (v memUsers) Update(_ context.Context, user *models.User) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.users[user.ID]; !ok {
		return ErrNotFound
	}
	for _, u := range v.s.users {
		if u.ID != user.ID && u.Email != nil && user.Email != nil && *u.Email == *user.Email {
			return ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	v.s.users[user.ID] = *user
	return nil
}

func (v memUsers) ListIDs(_ context.Context) ([]string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	ids := make([]string, 0, len(v.s.users))
	for id := range v.s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// --- ChallengeRepo view ---

type memChallenges struct{ s *MemoryStore }

func (v memChallenges) FindByID(_ context.Context, id string) (*models.Challenge, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	ch, ok := v.s.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ch, nil
}

func (v memChallenges) FindActive(_ context.Context, f ChallengeFilter) ([]models.Challenge, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	excluded := map[string]bool{}
	for _, c := range f.ExcludeCategories {
		excluded[c] = true
	}
	var out []models.Challenge
	for _, ch := range v.s.challenges {
		if !ch.IsActive || excluded[ch.Category] {
			continue
		}
		if f.Difficulty > 0 {
			if ch.Difficulty != f.Difficulty {
				continue
			}
		} else if f.MinDifficulty > 0 && f.MaxDifficulty > 0 {
			if ch.Difficulty < f.MinDifficulty || ch.Difficulty > f.MaxDifficulty {
				continue
			}
		}
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (v memChallenges) List(_ context.Context, activeOnly bool, category string) ([]models.Challenge, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []models.Challenge
	for _, ch := range v.s.challenges {
		if activeOnly && !ch.IsActive {
			continue
		}
		if category != "" && ch.Category != category {
			continue
		}
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Difficulty != out[j].Difficulty {
			return out[i].Difficulty < out[j].Difficulty
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (v memChallenges) Count(_ context.Context) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return int64(len(v.s.challenges)), nil
}

func (v memChallenges) UpsertAll(_ context.Context, challenges []models.Challenge) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	bySlug := map[string]bool{}
	for _, ch := range v.s.challenges {
		bySlug[ch.Slug] = true
	}
	for _, ch := range challenges {
		if bySlug[ch.Slug] {
			continue
		}
		if ch.ID == "" {
			ch.ID = uuid.NewString()
		}
		v.s.challenges[ch.ID] = ch
		bySlug[ch.Slug] = true
	}
	return nil
}

// --- AssignmentRepo view ---

type memAssignments struct{ s *MemoryStore }

func (v memAssignments) FindByUserDay(_ context.Context, userID, day string) (*models.DailyAssignment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	id, ok := v.s.userDay[memDayKey(userID, day)]
	if !ok {
		return nil, ErrNotFound
	}
	a := v.s.assignments[id]
	if ch, ok := v.s.challenges[a.ChallengeID]; ok {
		c := ch
		a.Challenge = &c
	}
	return &a, nil
}

func (v memAssignments) Create(_ context.Context, a *models.DailyAssignment) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	// The userDay index plays the role of the SQL unique constraint:
	// first insert wins, later ones get ErrDuplicate.
	key := memDayKey(a.UserID, a.AssignedDate)
	if _, ok := v.s.userDay[key]; ok {
		return ErrDuplicate
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	stored := *a
	stored.Challenge = nil
	v.s.assignments[a.ID] = stored
	v.s.userDay[key] = a.ID
	return nil
}

func (v memAssignments) MarkCompleted(_ context.Context, id string, at time.Time, note *string) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	a, ok := v.s.assignments[id]
	if !ok || a.CompletedAt != nil || a.SkippedAt != nil {
		return false, nil
	}
	t := at
	a.CompletedAt = &t
	if note != nil {
		n := *note
		a.Note = &n
	}
	a.UpdatedAt = time.Now()
	v.s.assignments[id] = a
	return true, nil
}

func (v memAssignments) MarkSkipped(_ context.Context, id string, at time.Time) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	a, ok := v.s.assignments[id]
	if !ok || a.CompletedAt != nil || a.SkippedAt != nil {
		return false, nil
	}
	t := at
	a.SkippedAt = &t
	a.UpdatedAt = time.Now()
	v.s.assignments[id] = a
	return true, nil
}

func (v memAssignments) UpdateNote(_ context.Context, id string, note *string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	a, ok := v.s.assignments[id]
	if !ok {
		return ErrNotFound
	}
	if note == nil {
		a.Note = nil
	} else {
		n := *note
		a.Note = &n
	}
	a.UpdatedAt = time.Now()
	v.s.assignments[id] = a
	return nil
}

func (v memAssignments) CountCompletedSince(_ context.Context, userID, fromDay string) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var n int64
	for _, a := range v.s.assignments {
		if a.UserID == userID && a.CompletedAt != nil && a.AssignedDate >= fromDay {
			n++
		}
	}
	return n, nil
}

func (v memAssignments) CountCompleted(_ context.Context, userID string) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var n int64
	for _, a := range v.s.assignments {
		if a.UserID == userID && a.CompletedAt != nil {
			n++
		}
	}
	return n, nil
}

func (v memAssignments) RecentCompletedDays(_ context.Context, userID string, limit int) ([]string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var days []string
	for _, a := range v.s.assignments {
		if a.UserID == userID && a.CompletedAt != nil {
			days = append(days, a.AssignedDate)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	if len(days) > limit {
		days = days[:limit]
	}
	return days, nil
}

func (v memAssignments) RecentSkippedDays(_ context.Context, userID string, limit int) ([]string, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var days []string
	for _, a := range v.s.assignments {
		if a.UserID == userID && a.SkippedAt != nil {
			days = append(days, a.AssignedDate)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	if len(days) > limit {
		days = days[:limit]
	}
	return days, nil
}

func (v memAssignments) CompletionTimes(_ context.Context, userID string, limit int) ([]time.Time, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var times []time.Time
	for _, a := range v.s.assignments {
		if a.UserID == userID && a.CompletedAt != nil {
			times = append(times, *a.CompletedAt)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].After(times[j]) })
	if len(times) > limit {
		times = times[:limit]
	}
	return times, nil
}

func (v memAssignments) HistorySince(_ context.Context, userID, fromDay string) ([]models.DailyAssignment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []models.DailyAssignment
	for _, a := range v.s.assignments {
		if a.UserID != userID || a.AssignedDate < fromDay {
			continue
		}
		if ch, ok := v.s.challenges[a.ChallengeID]; ok {
			c := ch
			a.Challenge = &c
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedDate > out[j].AssignedDate })
	return out, nil
}

// --- StatsRepo view ---

type memStats struct{ s *MemoryStore }

func (v memStats) GetOrCreate(_ context.Context, userID string) (*models.UserStats, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if s, ok := v.s.stats[userID]; ok {
		return &s, nil
	}
	s := models.UserStats{UserID: userID, Badges: models.BadgeList{}}
	v.s.stats[userID] = s
	return &s, nil
}

func (v memStats) Save(_ context.Context, stats *models.UserStats) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	stats.UpdatedAt = time.Now()
	v.s.stats[stats.UserID] = *stats
	return nil
}

// --- WinRepo view ---

type memWins struct{ s *MemoryStore }

func (v memWins) Create(_ context.Context, win *models.Win) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if win.ID == "" {
		win.ID = uuid.NewString()
	}
	win.CreatedAt = time.Now()
	v.s.wins[win.ID] = *win
	return nil
}

func (v memWins) FindByID(_ context.Context, id string) (*models.Win, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	w, ok := v.s.wins[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (v memWins) IncrementLikes(_ context.Context, id string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	w, ok := v.s.wins[id]
	if !ok {
		return ErrNotFound
	}
	w.Likes++
	v.s.wins[id] = w
	return nil
}

func (v memWins) Recent(_ context.Context, limit int) ([]models.Win, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	wins := make([]models.Win, 0, len(v.s.wins))
	for _, w := range v.s.wins {
		wins = append(wins, w)
	}
	sort.Slice(wins, func(i, j int) bool { return wins[i].CreatedAt.After(wins[j].CreatedAt) })
	if len(wins) > limit {
		wins = wins[:limit]
	}
	return wins, nil
}

func (v memWins) RecordEvent(_ context.Context, event *models.WinEvent) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	v.s.winEvents = append(v.s.winEvents, *event)
	return nil
}

func (v memWins) CountEventsSince(_ context.Context, userHash, eventType string, since time.Time) (int64, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var n int64
	for _, e := range v.s.winEvents {
		if e.UserHash == userHash && e.Type == eventType && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// --- JournalRepo view ---

type memJournal struct{ s *MemoryStore }

func (v memJournal) ListByUser(_ context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range v.s.journal {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryDate > out[j].EntryDate })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (v memJournal) ListSince(_ context.Context, userID, fromDay string) ([]models.JournalEntry, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range v.s.journal {
		if e.UserID == userID && e.EntryDate >= fromDay {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryDate > out[j].EntryDate })
	return out, nil
}

func (v memJournal) Create(_ context.Context, entry *models.JournalEntry) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	v.s.journal[entry.ID] = *entry
	return nil
}

func (v memJournal) FindOwned(_ context.Context, id, userID string) (*models.JournalEntry, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	e, ok := v.s.journal[id]
	if !ok || e.UserID != userID {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (v memJournal) Update(_ context.Context, entry *models.JournalEntry) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.journal[entry.ID]; !ok {
		return ErrNotFound
	}
	entry.UpdatedAt = time.Now()
	v.s.journal[entry.ID] = *entry
	return nil
}

func (v memJournal) Delete(_ context.Context, id, userID string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	e, ok := v.s.journal[id]
	if !ok || e.UserID != userID {
		return ErrNotFound
	}
	delete(v.s.journal, id)
	return nil
}
