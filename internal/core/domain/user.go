package domain

import "time"

// User is the identity record for a chat participant. Username is the unique
// key; the IP field anchors the username to the last network address that
// logged in with it. Records are mutated in place and never deleted.
type User struct {
	Username     string     `json:"username"`
	IsAdmin      bool       `json:"isAdmin"`
	MutedUntil   *time.Time `json:"mutedUntil"`
	IP           string     `json:"ip"`
	BannedReason *string    `json:"bannedReason"`

	// UpdatedAt is refreshed by the repositories on every save. When
	// several usernames share an IP, lookups by IP resolve to the most
	// recently saved record.
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsBanned reports whether the user is banned. Presence of a reason is the
// ban marker; the reason text is what gets displayed.
func (u *User) IsBanned() bool {
	return u != nil && u.BannedReason != nil
}

// IsMuted reports whether the user is muted at the given instant.
func (u *User) IsMuted(now time.Time) bool {
	return u != nil && u.MutedUntil != nil && u.MutedUntil.After(now)
}

// BanStatus is the result of a ban lookup by IP.
type BanStatus struct {
	Banned bool
	Reason string
}
