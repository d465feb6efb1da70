// Package perm resolves what a user may do to a share.
//
// Access levels form a total order read < write < owner. A direct
// grant, when present, governs exclusively: a user with a direct read
// grant is not promoted by a looser group grant on the same share.
// Without a direct grant, any single group grant that meets the
// requirement suffices, and every group the user belongs to is
// considered before denying.
package perm

import (
	"context"

	"github.com/arogoff/nas/internal/db"
)

// Level is an ordinal access level on a share.
type Level int

const (
	LevelRead Level = iota + 1
	LevelWrite
	LevelOwner
)

// String returns the store representation of the level.
func (l Level) String() string {
	switch l {
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	case LevelOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// ParseLevel maps a store string to a Level.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "read":
		return LevelRead, true
	case "write":
		return LevelWrite, true
	case "owner":
		return LevelOwner, true
	default:
		return 0, false
	}
}

// Resolver answers access questions against the store. Decisions are
// never cached; every call re-reads the grants.
type Resolver struct {
	DB *db.DB
}

// HasAccess reports whether the user holds at least the required level
// on the share.
func (r *Resolver) HasAccess(ctx context.Context, userID, shareID int64, required Level) (bool, error) {
	direct, ok, err := r.DB.UserShareLevel(ctx, userID, shareID)
	if err != nil {
		return false, err
	}
	if ok {
		lvl, valid := ParseLevel(direct)
		return valid && lvl >= required, nil
	}

	levels, err := r.DB.GroupShareLevels(ctx, userID, shareID)
	if err != nil {
		return false, err
	}
	for _, s := range levels {
		if lvl, valid := ParseLevel(s); valid && lvl >= required {
			return true, nil
		}
	}
	return false, nil
}
