package db

import (
	"time"
)

// Swipe direction values.
const (
	DirectionYes = "Yes"
	DirectionNo  = "No"
)

// Swipe status values.
const (
	StatusPending  = "Pending"
	StatusAccepted = "Accepted"
	StatusDenied   = "Denied"
)

// Notification types.
const (
	NotificationMatch      = "Match"
	NotificationMessage    = "Message"
	NotificationStudyGroup = "StudyGroup"
)

// MaxGroupSize is the roster ceiling for a study group.
const MaxGroupSize = 6

// User table
type User struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	Name             string `gorm:"size:128;not null"`
	Email            string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash     string `gorm:"size:255;not null"`
	Major            string `gorm:"size:128"`
	Tags             string `gorm:"size:512"`
	IdealMatchFactor float64
	ProfilePic       string    `gorm:"size:512"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// StudyGroup holds a roster of up to MaxGroupSize users and, once anyone
// needs to talk, exactly one chat. Whenever ChatID is set the chat's user
// set must mirror Users; service/groups owns that invariant.
type StudyGroup struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	Name             string `gorm:"size:128;not null"`
	Description      string `gorm:"size:1024"`
	Subject          string `gorm:"size:128"`
	CreatedByID      uint64 `gorm:"index"`
	ChatID           *uint64
	IdealMatchFactor float64
	ProfilePic       string    `gorm:"size:512"`
	Users            []User    `gorm:"many2many:study_group_users"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

// Chat is either a direct chat (StudyGroupID nil, exactly two users) or a
// group chat owned by one study group.
type Chat struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	Name            string `gorm:"size:128"`
	StudyGroupID    *uint64
	LastUpdatedByID *uint64
	Users           []User    `gorm:"many2many:chat_users"`
	Messages        []Message `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// Message belongs to a chat. SenderID is nil for system messages
// ("x left the group"). Ref is a server-generated UUID used as the
// payload identity on the realtime channel.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ChatID    uint64    `gorm:"index;not null"`
	SenderID  *uint64   `gorm:"index"`
	Ref       string    `gorm:"size:36"`
	Body      string    `gorm:"size:2048;not null"`
	System    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Swipe records directional interest from an actor toward a user or a
// group. Exactly one of TargetUserID / TargetGroupID is set.
//
// Duplicates per directed pair are allowed at write time; the most
// recently updated row is authoritative and stale rows are deleted when a
// decision lands (see service/matches).
type Swipe struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	UserID        uint64    `gorm:"index;not null"`
	TargetUserID  *uint64   `gorm:"index"`
	TargetGroupID *uint64   `gorm:"index"`
	Direction     string    `gorm:"size:8;not null"`
	Message       string    `gorm:"size:512"`
	Status        string    `gorm:"size:16;not null;default:'Pending'"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime;index"`
}

// Match is a confirmed relationship. Between two users (User2ID set) it
// enables a direct chat; with StudyGroupID set and only User1ID it means
// "user1 is matched into this group".
type Match struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID           uint64    `gorm:"index;not null"`
	User2ID           *uint64   `gorm:"index"`
	StudyGroupID      *uint64   `gorm:"index"`
	IsStudyGroupMatch bool      `gorm:"not null;default:false"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

// Notification table
type Notification struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	UserID       uint64  `gorm:"index;not null"`
	OtherID      *uint64
	Message      string `gorm:"size:512;not null"`
	Type         string `gorm:"size:16;not null"`
	Read         bool   `gorm:"not null;default:false"`
	ChatID       *uint64
	StudyGroupID *uint64
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}
