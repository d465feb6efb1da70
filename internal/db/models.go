// Package db defines the persistence models for the share manager.
package db

// User is an account row. PassHash is a PHC-format argon2id string.
type User struct {
	ID        int64
	Username  string
	PassHash  string
	IsAdmin   bool
	CreatedAt int64
}

// Group is a named set of users that can be granted share access.
type Group struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   int64
}

// Share is a named root directory plus its access-control rows.
type Share struct {
	ID        int64
	Name      string
	RootPath  string
	CreatedBy int64
	CreatedAt int64
}

// RefreshToken is a server-tracked renewal credential row. A refresh
// token is only honored while its row exists and has not expired.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt int64
	CreatedAt int64
}

// FileActivity records one completed file operation on a share.
type FileActivity struct {
	ID        int64
	ShareID   int64
	UserID    int64
	Action    string
	Filename  string
	CreatedAt int64
}

// ActivityEntry is a FileActivity joined with display names.
type ActivityEntry struct {
	FileActivity
	Username  string
	ShareName string
}

// Notification is a per-user message row; deleting it marks it read.
type Notification struct {
	ID        int64
	UserID    int64
	Message   string
	CreatedAt int64
}
