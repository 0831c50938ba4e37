package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedTables = []string{
	"notifications", "matches", "swipes", "messages",
	"chat_users", "chats", "study_group_users", "study_groups", "users",
}

// SeedTestData resets the database and populates it with demo users,
// study groups and swipes.
//
// Behavior:
//  1. Clears all application tables.
//  2. Creates 20 users with hashed passwords across a few majors.
//  3. Creates 3 study groups of 3-4 members each, with mirrored chats.
//  4. Generates ~100 swipes with ~60% Yes, some already accepted.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearTables(db); err != nil {
		return err
	}
	log.Println("Cleared existing data")

	majors := []string{"Mathematics", "Physics", "Computer Science", "Biology"}

	// --- Seed Users ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := User{
			Name:             fmt.Sprintf("user%d", i),
			Email:            fmt.Sprintf("user%d@example.edu", i),
			PasswordHash:     string(hash),
			Major:            majors[i%len(majors)],
			IdealMatchFactor: float64(r.Intn(100)) / 100,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	// --- Seed StudyGroups with mirrored chats ---
	for g := 0; g < 3; g++ {
		size := 3 + r.Intn(2)
		var members []User
		if err := db.Order("id").Offset(g * 4).Limit(size).Find(&members).Error; err != nil {
			return fmt.Errorf("failed to pick members: %w", err)
		}

		group := StudyGroup{
			Name:        fmt.Sprintf("Study Group %d", g+1),
			Subject:     majors[g%len(majors)],
			CreatedByID: members[0].ID,
			Users:       members,
		}
		if err := db.Create(&group).Error; err != nil {
			return fmt.Errorf("failed to seed group: %w", err)
		}

		chat := Chat{
			Name:         fmt.Sprintf("Study Group %d", group.ID),
			StudyGroupID: &group.ID,
			Users:        members,
		}
		if err := db.Create(&chat).Error; err != nil {
			return fmt.Errorf("failed to seed chat: %w", err)
		}
		if err := db.Model(&group).Update("chat_id", chat.ID).Error; err != nil {
			return fmt.Errorf("failed to link chat: %w", err)
		}
	}
	log.Println("Seeded 3 study groups.")

	// --- Seed Swipes (~100) ---
	for i := 0; i < 100; i++ {
		actor := uint64(r.Intn(20) + 1)
		target := uint64(r.Intn(20) + 1)
		if actor == target {
			continue
		}

		direction := DirectionNo
		if r.Intn(100) < 60 {
			direction = DirectionYes
		}

		swipe := Swipe{
			UserID:       actor,
			TargetUserID: &target,
			Direction:    direction,
			Status:       StatusPending,
		}
		if err := db.Create(&swipe).Error; err != nil {
			return fmt.Errorf("failed to seed swipe: %w", err)
		}
	}

	return nil
}

// SeedMinimalTestData wipes the DB and inserts a small deterministic
// dataset: three users, one pending swipe and one accepted pair.
func SeedMinimalTestData(db *gorm.DB) error {
	if err := clearTables(db); err != nil {
		return err
	}

	users := []User{
		{ID: 1, Name: "alice", Email: "alice@test.edu", PasswordHash: "x", Major: "Mathematics"},
		{ID: 2, Name: "bob", Email: "bob@test.edu", PasswordHash: "x", Major: "Physics"},
		{ID: 3, Name: "carol", Email: "carol@test.edu", PasswordHash: "x", Major: "Mathematics"},
	}
	if err := db.Create(&users).Error; err != nil {
		return err
	}

	two, three := uint64(2), uint64(3)
	swipes := []Swipe{
		{UserID: 1, TargetUserID: &two, Direction: DirectionYes, Status: StatusPending},
		{UserID: 1, TargetUserID: &three, Direction: DirectionYes, Status: StatusAccepted},
	}
	if err := db.Create(&swipes).Error; err != nil {
		return err
	}

	match := Match{User1ID: 1, User2ID: &three}
	return db.Create(&match).Error
}

func clearTables(db *gorm.DB) error {
	for _, table := range seedTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// Reset auto-increment sequences
	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range seedTables {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence")
	}
	return nil
}
