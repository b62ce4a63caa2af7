package store

// Names of the persisted entries kept for every device.
const (
	KeyCurrentTab   = "wildscan-current-tab"
	KeyUserStats    = "wildscan-user-stats"
	KeySettings     = "wildscan-settings"
	KeyFavorites    = "wildscan-favorites"
	KeyChatSidebar  = "wildscan-chat-sidebar"
	KeyDiscovered   = "wildscan-discovered"
	KeyChatSessions = "wildscan-chat-sessions"
)

// DeviceKey scopes name to a single device's namespace.
func DeviceKey(deviceID, name string) string {
	return DevicePrefix(deviceID) + name
}

// DevicePrefix returns the key prefix shared by all of a device's entries.
func DevicePrefix(deviceID string) string {
	return deviceID + ":"
}
