package store

import "time"

type User struct {
	ID          string
	DisplayName string
	Email       string
	// Player settings fed into display-level status resolution.
	PlayerLevel            int
	BypassLevelRequirement bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// QuestProgressRow is one persisted quest status entry. Exactly one row
// per (user, quest); upserts transition it, nothing deletes it short of
// a full wipe.
type QuestProgressRow struct {
	UserID      string
	QuestID     string
	Status      string
	CompletedAt *time.Time
	// SyncSource records which client wrote last: "web" or "companion".
	SyncSource string
	UpdatedAt  time.Time
}

type ObjectiveProgressRow struct {
	UserID      string
	ObjectiveID string
	Completed   bool
	Current     int
	Target      int
	UpdatedAt   time.Time
}

// CompanionToken is a device-scoped credential for the desktop client.
// Only the bcrypt hash is stored; the raw token is shown once at link
// time and TokenHint keeps its last four characters for display.
type CompanionToken struct {
	ID         string
	UserID     string
	TokenHash  string
	TokenHint  string
	DeviceName string
	GameMode   string
	CreatedAt  time.Time
	LastSeen   *time.Time
	RevokedAt  *time.Time
}
