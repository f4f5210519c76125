package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	seedCampuses    = []string{"Main 6kilo", "5kilo", "4kilo", "Sefer Selam", "FBE", "Yared", "Lideta"}
	seedDepartments = []string{"IT", "Engineering", "Law", "Business", "Health Sciences", "Natural Sciences", "Social Sciences"}
	seedYears       = []string{"1st Year", "2nd Year", "3rd Year", "4th Year", "5th Year+"}
	seedInterests   = []string{"Music", "Movies", "Tech", "Gym", "Football", "Books", "Coffee", "Art", "Travel", "Gaming", "Poetry", "Cooking"}
	seedTraits      = []string{"night_owl", "introvert", "planner", "coffee", "city"}
)

// SeedTestData resets the database and populates it with demo campus users.
//
// Behavior:
//  1. Clears likes, passes, matches, queue, interests and users.
//  2. Creates `count` users (alternating male/female, ~1 in 6 seeking "any").
//  3. Assigns 2–5 catalog interests and a full vibe questionnaire per user.
//  4. Inserts one-way likes so some profiles surface as "liked you".
//
// Compatible with MySQL, Postgres and SQLite.
func SeedTestData(database *gorm.DB, count int) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"match_queue", "transactions", "likes", "passes", "matches", "user_interests", "interests", "users"} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	catalog := make([]Interest, 0, len(seedInterests))
	for _, name := range seedInterests {
		catalog = append(catalog, Interest{Name: name})
	}
	if err := database.Create(&catalog).Error; err != nil {
		return fmt.Errorf("failed to seed interests: %w", err)
	}

	now := time.Now().UTC()
	users := make([]User, 0, count)
	for i := 1; i <= count; i++ {
		gender, seeking := "male", "female"
		if i%2 == 0 {
			gender, seeking = "female", "male"
		}
		if i%6 == 0 {
			seeking = SeekAny
		}

		vibe := VibeAnswers{}
		for _, trait := range seedTraits {
			vibe[trait] = []string{"a", "b"}[r.Intn(2)]
		}

		users = append(users, User{
			Username:      fmt.Sprintf("student%d", i),
			Name:          fmt.Sprintf("Student %d", i),
			Gender:        gender,
			SeekingGender: seeking,
			Campus:        seedCampuses[r.Intn(len(seedCampuses))],
			Department:    seedDepartments[r.Intn(len(seedDepartments))],
			Year:          seedYears[r.Intn(len(seedYears))],
			VibeAnswers:   datatypes.NewJSONType(vibe),
			IsActive:      true,
			Coins:         120,
			LastActive:    now.Add(-time.Duration(r.Intn(24*20)) * time.Hour),
		})
	}
	if err := database.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Printf("Seeded %d users.", len(users))

	for _, u := range users {
		picks := r.Perm(len(catalog))[:2+r.Intn(4)]
		links := make([]UserInterest, 0, len(picks))
		for _, idx := range picks {
			links = append(links, UserInterest{UserID: u.ID, InterestID: catalog[idx].ID})
		}
		if err := database.Create(&links).Error; err != nil {
			return fmt.Errorf("failed to seed user interests: %w", err)
		}
	}

	// one-way likes only; mutual likes must go through the matching engine
	likes := 0
	for _, liker := range users {
		for j := 0; j < 3; j++ {
			liked := users[r.Intn(len(users))]
			if liked.ID == liker.ID || liked.Gender == liker.Gender {
				continue
			}
			var reverse int64
			database.Model(&Like{}).Where("liker_id = ? AND liked_id = ?", liked.ID, liker.ID).Count(&reverse)
			if reverse > 0 {
				continue
			}
			if err := database.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&Like{LikerID: liker.ID, LikedID: liked.ID}).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			likes++
		}
	}
	log.Printf("Seeded %d likes.", likes)

	return nil
}
