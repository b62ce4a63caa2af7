// Package domain contains core domain types for the WildScan application.
package domain

// Tab identifies one of the top-level screens.
type Tab string

const (
	TabHome      Tab = "home"
	TabFavorites Tab = "favorites"
	TabScan      Tab = "scan"
	TabChat      Tab = "chat"
	TabProfile   Tab = "profile"
)

// Valid reports whether t is one of the known tabs.
func (t Tab) Valid() bool {
	switch t {
	case TabHome, TabFavorites, TabScan, TabChat, TabProfile:
		return true
	}
	return false
}

// TextSize is the user-selected text scale.
type TextSize string

const (
	TextSizeSmall  TextSize = "small"
	TextSizeMedium TextSize = "medium"
	TextSizeLarge  TextSize = "large"
)

// Valid reports whether s is a known text size.
func (s TextSize) Valid() bool {
	return s == TextSizeSmall || s == TextSizeMedium || s == TextSizeLarge
}

// UserStats holds the counters shown on the profile screen.
type UserStats struct {
	TotalScans         int `json:"totalScans"`
	UniqueAnimalsFound int `json:"uniqueAnimalsFound"`
	ChatSessions       int `json:"chatSessions"`
	FavoritesCount     int `json:"favoritesCount"`
}

// DefaultUserStats returns the statistics a new device starts with.
func DefaultUserStats() UserStats {
	return UserStats{
		TotalScans:         127,
		UniqueAnimalsFound: 23,
		ChatSessions:       20,
		FavoritesCount:     0,
	}
}

// AppSettings holds user preferences.
type AppSettings struct {
	Language      string   `json:"language"`
	TextSize      TextSize `json:"textSize"`
	DarkMode      bool     `json:"darkMode"`
	Notifications bool     `json:"notifications"`
}

// DefaultAppSettings returns the settings a new device starts with.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Language:      "English",
		TextSize:      TextSizeMedium,
		DarkMode:      false,
		Notifications: true,
	}
}

// Setting keys accepted by keyed settings updates.
const (
	SettingLanguage      = "language"
	SettingTextSize      = "textSize"
	SettingDarkMode      = "darkMode"
	SettingNotifications = "notifications"
)

// ConservationStatus is an IUCN-style extinction risk category.
type ConservationStatus string

const (
	StatusLeastConcern         ConservationStatus = "least-concern"
	StatusNearThreatened       ConservationStatus = "near-threatened"
	StatusVulnerable           ConservationStatus = "vulnerable"
	StatusEndangered           ConservationStatus = "endangered"
	StatusCriticallyEndangered ConservationStatus = "critically-endangered"
	StatusExtinct              ConservationStatus = "extinct"
)
