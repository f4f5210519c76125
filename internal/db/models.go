package db

import (
	"time"

	"gorm.io/datatypes"
)

// SeekAny is the seeking_gender value that accepts every gender.
const SeekAny = "any"

// VibeAnswers maps a vibe-question trait to the option the user picked.
type VibeAnswers map[string]string

// User is a campus profile. Rows are soft-disabled through IsActive/IsBanned
// and never deleted by the matching core.
type User struct {
	ID            uint64                          `gorm:"primaryKey;autoIncrement"`
	Username      string                          `gorm:"size:64"`
	Name          string                          `gorm:"size:128"`
	Gender        string                          `gorm:"size:16;not null;index"`
	SeekingGender string                          `gorm:"size:16;not null"`
	Campus        string                          `gorm:"size:64;index"`
	Department    string                          `gorm:"size:64"`
	Year          string                          `gorm:"size:32"`
	VibeAnswers   datatypes.JSONType[VibeAnswers] `gorm:"not null"`
	IsActive      bool                            `gorm:"not null;index"`
	IsBanned      bool                            `gorm:"not null"`
	Coins         int                             `gorm:"not null"`
	LastActive    time.Time                       `gorm:"index"`
	CreatedAt     time.Time                       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time                       `gorm:"autoUpdateTime"`
}

// Vibe returns the decoded vibe answers (nil when never answered).
func (u User) Vibe() VibeAnswers { return u.VibeAnswers.Data() }

// Interest is a catalog entry shared by all users.
type Interest struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:64;not null;uniqueIndex"`
}

// UserInterest links a user to a catalog interest.
type UserInterest struct {
	UserID     uint64 `gorm:"primaryKey"`
	InterestID uint64 `gorm:"primaryKey;index"`
}

// Like is a one-directional like.
//
// Unique (LikerID, LikedID): concurrent duplicate submissions collapse to one row.
// ID is the insertion sequence and decides the initiator of a mutual match.
type Like struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	LikerID   uint64    `gorm:"not null;uniqueIndex:idx_like_pair,priority:1"`
	LikedID   uint64    `gorm:"not null;uniqueIndex:idx_like_pair,priority:2;index:idx_like_liked"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Pass records that UserID skipped TargetID.
//
// Composite PK: one row per pair. PassCount is the lifetime total. The two
// most recent pass times are kept, which is all the trailing-window rules
// need: "passed twice in the window" holds exactly when PrevPassedAt is
// inside it.
type Pass struct {
	UserID       uint64    `gorm:"primaryKey"`
	TargetID     uint64    `gorm:"primaryKey;index"`
	PassCount    int       `gorm:"not null"`
	LastPassedAt time.Time `gorm:"not null;index"`
	PrevPassedAt *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// InWindow counts the recorded passes later than cutoff (0, 1 or 2).
func (p Pass) InWindow(cutoff time.Time) int {
	n := 0
	if p.LastPassedAt.After(cutoff) {
		n++
	}
	if p.PrevPassedAt != nil && p.PrevPassedAt.After(cutoff) {
		n++
	}
	return n
}

// Match is a mutual like between User1ID < User2ID.
//
// ActivePair holds "user1:user2" while the chat is active and NULL afterwards;
// its unique index allows any number of past matches but one active match
// per pair.
type Match struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID     uint64    `gorm:"not null;index:idx_match_users,priority:1"`
	User2ID     uint64    `gorm:"not null;index:idx_match_users,priority:2"`
	InitiatorID uint64    `gorm:"not null"`
	Revealed    bool      `gorm:"not null"`
	ChatActive  bool      `gorm:"not null"`
	ActivePair  *string   `gorm:"size:64;uniqueIndex"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Other returns the participant that is not userID.
func (m Match) Other(userID uint64) uint64 {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// Has reports whether userID is one of the participants.
func (m Match) Has(userID uint64) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// SpecialType labels why a match is worth announcing.
type SpecialType string

const (
	SpecialHighVibe           SpecialType = "high-vibe"
	SpecialFreshmanSenior     SpecialType = "freshman-senior"
	SpecialCrossCampus        SpecialType = "cross-campus"
	SpecialSharedInterests    SpecialType = "shared-interests"
	SpecialSameDepartment     SpecialType = "same-department"
	SpecialOppositeDepartment SpecialType = "opposite-department"
)

// SpecialTypes lists every label in classification priority order.
var SpecialTypes = []SpecialType{
	SpecialHighVibe,
	SpecialFreshmanSenior,
	SpecialCrossCampus,
	SpecialSharedInterests,
	SpecialSameDepartment,
	SpecialOppositeDepartment,
}

// Valid reports whether s is one of the closed set of labels.
func (s SpecialType) Valid() bool {
	for _, t := range SpecialTypes {
		if s == t {
			return true
		}
	}
	return false
}

// ProfileSnapshot is the public-facing part of one participant at queue time.
type ProfileSnapshot struct {
	UserID     uint64   `json:"user_id"`
	Campus     string   `json:"campus"`
	Department string   `json:"department"`
	Year       string   `json:"year"`
	Interests  []string `json:"interests"`
}

// PairSnapshot is stored with a queue item so announcements do not change
// when profiles are edited later.
type PairSnapshot struct {
	User1           ProfileSnapshot `json:"user1"`
	User2           ProfileSnapshot `json:"user2"`
	SharedInterests []string        `json:"shared_interests"`
	VibeScore       float64         `json:"vibe_score"`
}

// QueueItem is a match selected for a public announcement.
//
// Lifecycle: pending (Sent=false) → posting (PostingAt set) → sent.
// Rows are never deleted automatically.
type QueueItem struct {
	ID           uint64                           `gorm:"primaryKey;autoIncrement"`
	MatchID      uint64                           `gorm:"not null;index"`
	User1ID      uint64                           `gorm:"not null"`
	User2ID      uint64                           `gorm:"not null"`
	Snapshot     datatypes.JSONType[PairSnapshot] `gorm:"not null"`
	VibeScore    float64                          `gorm:"not null"`
	SpecialType  *SpecialType                     `gorm:"size:32"`
	NextPostTime time.Time                        `gorm:"not null;index:idx_queue_due,priority:2"`
	Sent         bool                             `gorm:"not null;index:idx_queue_due,priority:1"`
	SentAt       *time.Time
	PostingAt    *time.Time `gorm:"index"`
	MessageRef   *string    `gorm:"size:128"`
	Error        *string    `gorm:"type:text"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (QueueItem) TableName() string { return "match_queue" }

// CoinTransaction is one ledger entry; Amount is negative for spends.
type CoinTransaction struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      uint64    `gorm:"not null;index:idx_tx_user_created,priority:1"`
	Amount      int       `gorm:"not null"`
	Type        string    `gorm:"size:32;not null"`
	Description string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_tx_user_created,priority:2"`
}

func (CoinTransaction) TableName() string { return "transactions" }

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Interest{}, &UserInterest{},
		&Like{}, &Pass{}, &Match{},
		&QueueItem{}, &CoinTransaction{},
	}
}
