package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCities = []string{"London", "Manchester", "Bristol", "Leeds", "Brighton"}

var seedInterests = [][]string{
	{"hiking", "coffee", "photography"},
	{"yoga", "travel", "cooking"},
	{"climbing", "cycling", "live music"},
	{"reading", "museums", "wine"},
	{"running", "films", "board games"},
}

var seedTraits = [][]string{
	{"adventurous", "easygoing"},
	{"ambitious", "thoughtful"},
	{"funny", "spontaneous"},
	{"creative", "kind"},
	{"outgoing", "curious"},
}

// SeedTestData resets the database and populates it with demo accounts.
//
// Behavior:
//  1. Clears every domain table.
//  2. Creates 20 users (10 male, 10 female) with completed profiles,
//     activity counters and a starter credit balance.
//  3. Generates a spread of likes across opposite-gender pairs, with every
//     3rd pair made mutual so match rows exist out of the box.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tables := []string{
		"messages", "matches", "likes", "blocks", "credit_transactions",
		"search_histories", "activity_limits", "persona_profiles", "users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		for _, table := range tables {
			db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, table := range tables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", table)
		}
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	for i := 1; i <= 20; i++ {
		gender, interestedIn := "male", "female"
		if i > 10 {
			gender, interestedIn = "female", "male"
		}
		lat := 51.5 + r.Float64()*0.4
		lon := -0.3 + r.Float64()*0.4

		user := User{
			Email:           fmt.Sprintf("user%d@example.com", i),
			PasswordHash:    string(hash),
			Name:            fmt.Sprintf("User %d", i),
			Gender:          gender,
			InterestedIn:    interestedIn,
			DateOfBirth:     now.AddDate(-(22 + r.Intn(15)), 0, -r.Intn(300)),
			City:            seedCities[i%len(seedCities)],
			Latitude:        &lat,
			Longitude:       &lon,
			IsVerified:      i%2 == 0,
			IsPremium:       i%5 == 0,
			CooldownEnabled: gender == "female",
			CreditBalance:   10,
			LastLoginAt:     now.Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		profile := PersonaProfile{
			UserID:           user.ID,
			Bio:              fmt.Sprintf("Hi, I'm %s from %s.", user.Name, user.City),
			Interests:        EncodeList(seedInterests[i%len(seedInterests)]),
			Traits:           EncodeList(seedTraits[i%len(seedTraits)]),
			RelationshipGoal: []string{"serious", "casual"}[i%2],
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		if err := db.Create(&ActivityLimits{UserID: user.ID, LastResetAt: now}).Error; err != nil {
			return fmt.Errorf("failed to seed limits: %w", err)
		}
		if err := db.Create(&CreditTransaction{
			UserID:    user.ID,
			Amount:    10,
			Direction: DirectionCredit,
			Reason:    "signup_bonus",
		}).Error; err != nil {
			return fmt.Errorf("failed to seed ledger: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	var users []User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return err
	}

	counter := 0
	for _, liker := range users {
		for j := 0; j < 6; j++ {
			target := users[r.Intn(len(users))]
			if target.ID == liker.ID || target.Gender == liker.Gender {
				continue
			}

			onConflict := clause.OnConflict{
				Columns:   []clause.Column{{Name: "liker_id"}, {Name: "liked_id"}},
				DoNothing: true,
			}
			if err := db.Clauses(onConflict).Create(&Like{
				LikerID:  liker.ID,
				LikedID:  target.ID,
				IsOnGrid: r.Intn(2) == 0,
			}).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}

			// guarantee mutual likes every 3rd pair so matches exist
			if counter%3 == 0 {
				db.Clauses(onConflict).Create(&Like{
					LikerID:  target.ID,
					LikedID:  liker.ID,
					IsOnGrid: true,
				})
				u1, u2 := liker.ID, target.ID
				if u2 < u1 {
					u1, u2 = u2, u1
				}
				db.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
					DoNothing: true,
				}).Create(&Match{User1ID: u1, User2ID: u2})
			}
			counter++
		}
	}
	log.Println("Seeded likes and matches.")

	return nil
}
