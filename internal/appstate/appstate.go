// Package appstate holds the cross-screen UI state of a device: the active tab,
// user statistics, settings, favorites and chat sidebar visibility.
//
// Every field is persisted independently through a store.Backend. Persistence
// is best-effort: a failed write is logged and the in-memory value stays
// authoritative for the rest of the process.
package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ashureev/wildscan/internal/domain"
	"github.com/ashureev/wildscan/internal/store"
)

var (
	// ErrInvalidTab is returned when a tab name is not one of the known tabs.
	ErrInvalidTab = errors.New("invalid tab")
	// ErrInvalidSetting is returned for unknown setting keys or values of the wrong shape.
	ErrInvalidSetting = errors.New("invalid setting")
)

// Field names reported to the change callback.
const (
	FieldTab       = "tab"
	FieldStats     = "stats"
	FieldSettings  = "settings"
	FieldFavorites = "favorites"
	FieldSidebar   = "sidebar"
	FieldSelection = "selection"
)

// ChangeFunc is invoked after a field changed in memory.
type ChangeFunc func(field string)

// Snapshot is a point-in-time copy of every field.
type Snapshot struct {
	Tab             domain.Tab         `json:"currentTab"`
	Stats           domain.UserStats   `json:"userStats"`
	Settings        domain.AppSettings `json:"settings"`
	Favorites       []string           `json:"favorites"`
	ChatSidebarOpen bool               `json:"isChatSidebarOpen"`
	SelectedAnimal  string             `json:"selectedAnimal,omitempty"`
}

// Store is the state of a single device.
type Store struct {
	mu       sync.Mutex
	backend  store.Backend
	deviceID string
	logger   *slog.Logger
	onChange ChangeFunc

	tab         domain.Tab
	stats       domain.UserStats
	settings    domain.AppSettings
	favorites   []string
	discovered  []string
	sidebarOpen bool
	selected    string
}

// Load reads a device's state from backend, falling back to defaults for
// entries that are missing or unreadable.
func Load(ctx context.Context, backend store.Backend, deviceID string, logger *slog.Logger, onChange ChangeFunc) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		backend:  backend,
		deviceID: deviceID,
		logger:   logger.With("device_id", deviceID),
		onChange: onChange,
		tab:      domain.TabHome,
		stats:    domain.DefaultUserStats(),
		settings: domain.DefaultAppSettings(),
	}

	s.load(ctx, store.KeyCurrentTab, &s.tab)
	s.load(ctx, store.KeyUserStats, &s.stats)
	s.load(ctx, store.KeySettings, &s.settings)
	s.load(ctx, store.KeyFavorites, &s.favorites)
	s.load(ctx, store.KeyDiscovered, &s.discovered)
	s.load(ctx, store.KeyChatSidebar, &s.sidebarOpen)

	if !s.tab.Valid() {
		s.logger.Warn("Persisted tab is invalid, using default", "tab", s.tab)
		s.tab = domain.TabHome
	}
	if !s.settings.TextSize.Valid() {
		s.settings.TextSize = domain.DefaultAppSettings().TextSize
	}
	// Favorites and the counter are separate entries; a lost write to one of
	// them must not survive a restart as a broken invariant.
	s.favorites = dedupe(s.favorites)
	s.discovered = dedupe(s.discovered)
	s.stats.FavoritesCount = len(s.favorites)

	return s
}

// dedupe drops repeated ids, keeping the first occurrence of each.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// load decodes key into dst, leaving dst at its default on any failure.
func (s *Store) load(ctx context.Context, name string, dst any) {
	raw, err := s.backend.Get(ctx, store.DeviceKey(s.deviceID, name))
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("Failed to read persisted state, using default", "key", name, "error", err)
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn("Persisted state is corrupt, using default", "key", name, "error", err)
	}
}

// persist writes v under key. Failures are logged and otherwise ignored.
func (s *Store) persist(ctx context.Context, name string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode state", "key", name, "error", err)
		return
	}
	if err := s.backend.Set(ctx, store.DeviceKey(s.deviceID, name), raw); err != nil {
		if errors.Is(err, store.ErrBusy) {
			s.logger.Warn("Backend busy, state kept in memory only", "key", name, "error", err)
			return
		}
		s.logger.Warn("Failed to persist state, kept in memory only", "key", name, "error", err)
	}
}

func (s *Store) changed(field string) {
	if s.onChange != nil {
		s.onChange(field)
	}
}

// DeviceID returns the device this state belongs to.
func (s *Store) DeviceID() string {
	return s.deviceID
}

// Tab returns the active tab.
func (s *Store) Tab() domain.Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// SetTab switches the active tab. Moving to a different tab clears any animal
// selection and closes the chat sidebar; selecting the current tab again
// changes nothing.
func (s *Store) SetTab(ctx context.Context, t domain.Tab) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTab, t)
	}

	s.mu.Lock()
	if t == s.tab {
		s.mu.Unlock()
		return nil
	}
	s.tab = t
	hadSelection := s.selected != ""
	s.selected = ""
	hadSidebar := s.sidebarOpen
	s.sidebarOpen = false
	s.persist(ctx, store.KeyCurrentTab, t)
	if hadSidebar {
		s.persist(ctx, store.KeyChatSidebar, false)
	}
	s.mu.Unlock()

	s.changed(FieldTab)
	if hadSelection {
		s.changed(FieldSelection)
	}
	if hadSidebar {
		s.changed(FieldSidebar)
	}
	return nil
}

// SelectedAnimal returns the animal whose detail view is open, if any.
// The selection is transient and never persisted.
func (s *Store) SelectedAnimal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SelectAnimal opens the detail view for animalID. An empty id closes it.
func (s *Store) SelectAnimal(animalID string) {
	s.mu.Lock()
	s.selected = animalID
	s.mu.Unlock()
	s.changed(FieldSelection)
}

// Stats returns a copy of the user statistics.
func (s *Store) Stats() domain.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// IncrementScans adds one to the total scan count.
func (s *Store) IncrementScans(ctx context.Context) domain.UserStats {
	return s.updateStats(ctx, func(st *domain.UserStats) { st.TotalScans++ })
}

// IncrementChatSessions adds one to the chat session count.
func (s *Store) IncrementChatSessions(ctx context.Context) domain.UserStats {
	return s.updateStats(ctx, func(st *domain.UserStats) { st.ChatSessions++ })
}

// AddUniqueAnimal records animalID as discovered. The unique-animals counter
// only moves the first time an id is seen; the return value reports whether
// this call discovered it.
func (s *Store) AddUniqueAnimal(ctx context.Context, animalID string) bool {
	s.mu.Lock()
	if animalID == "" || slices.Contains(s.discovered, animalID) {
		s.mu.Unlock()
		return false
	}
	s.discovered = append(s.discovered, animalID)
	s.stats.UniqueAnimalsFound++
	s.persist(ctx, store.KeyDiscovered, s.discovered)
	s.persist(ctx, store.KeyUserStats, s.stats)
	s.mu.Unlock()

	s.changed(FieldStats)
	return true
}

func (s *Store) updateStats(ctx context.Context, fn func(*domain.UserStats)) domain.UserStats {
	s.mu.Lock()
	fn(&s.stats)
	stats := s.stats
	s.persist(ctx, store.KeyUserStats, stats)
	s.mu.Unlock()

	s.changed(FieldStats)
	return stats
}

// Favorites returns the favorite animal ids in the order they were added.
func (s *Store) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.favorites)
}

// IsFavorited reports whether animalID is a favorite.
func (s *Store) IsFavorited(animalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.favorites, animalID)
}

// ToggleFavorite flips membership of animalID and keeps FavoritesCount equal to
// the number of favorites. It reports whether animalID is a favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, animalID string) bool {
	s.mu.Lock()
	idx := slices.Index(s.favorites, animalID)
	if idx >= 0 {
		s.favorites = slices.Delete(s.favorites, idx, idx+1)
	} else {
		s.favorites = append(s.favorites, animalID)
	}
	s.stats.FavoritesCount = len(s.favorites)
	s.persist(ctx, store.KeyFavorites, s.favorites)
	s.persist(ctx, store.KeyUserStats, s.stats)
	s.mu.Unlock()

	s.changed(FieldFavorites)
	s.changed(FieldStats)
	return idx < 0
}

// Settings returns a copy of the settings.
func (s *Store) Settings() domain.AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSetting replaces exactly the field named by key. Values arrive as
// decoded JSON, so strings and booleans are expected.
func (s *Store) UpdateSetting(ctx context.Context, key string, value any) (domain.AppSettings, error) {
	s.mu.Lock()
	next := s.settings
	if err := applySetting(&next, key, value); err != nil {
		s.mu.Unlock()
		return domain.AppSettings{}, err
	}
	s.settings = next
	s.persist(ctx, store.KeySettings, next)
	s.mu.Unlock()

	s.changed(FieldSettings)
	return next, nil
}

// ToggleDarkMode flips the dark mode setting.
func (s *Store) ToggleDarkMode(ctx context.Context) domain.AppSettings {
	s.mu.Lock()
	s.settings.DarkMode = !s.settings.DarkMode
	next := s.settings
	s.persist(ctx, store.KeySettings, next)
	s.mu.Unlock()

	s.changed(FieldSettings)
	return next
}

func applySetting(st *domain.AppSettings, key string, value any) error {
	switch key {
	case domain.SettingLanguage:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string", ErrInvalidSetting, key)
		}
		st.Language = v
	case domain.SettingTextSize:
		v, ok := value.(string)
		if !ok || !domain.TextSize(v).Valid() {
			return fmt.Errorf("%w: %s must be small, medium or large", ErrInvalidSetting, key)
		}
		st.TextSize = domain.TextSize(v)
	case domain.SettingDarkMode:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s must be a boolean", ErrInvalidSetting, key)
		}
		st.DarkMode = v
	case domain.SettingNotifications:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s must be a boolean", ErrInvalidSetting, key)
		}
		st.Notifications = v
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
	return nil
}

// ChatSidebarOpen reports whether the chat sidebar is visible.
func (s *Store) ChatSidebarOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sidebarOpen
}

// SetChatSidebarOpen shows or hides the chat sidebar.
func (s *Store) SetChatSidebarOpen(ctx context.Context, open bool) {
	s.mu.Lock()
	s.sidebarOpen = open
	s.persist(ctx, store.KeyChatSidebar, open)
	s.mu.Unlock()

	s.changed(FieldSidebar)
}

// Snapshot returns a copy of every field.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	favorites := slices.Clone(s.favorites)
	if favorites == nil {
		favorites = []string{}
	}
	return Snapshot{
		Tab:             s.tab,
		Stats:           s.stats,
		Settings:        s.settings,
		Favorites:       favorites,
		ChatSidebarOpen: s.sidebarOpen,
		SelectedAnimal:  s.selected,
	}
}
