package seed

import (
	"fmt"
	"log"

	"echoverse/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// DryRun builds entities without touching the database.
	DryRun bool
	// SkipBcrypt stores a plaintext password; dev fast mode only.
	SkipBcrypt bool
	// BatchSize controls chunked inserts for large post volumes.
	BatchSize int
	// MaxDays spreads generated created_at timestamps over this many days.
	MaxDays int
}

// hashtagPool is the tag vocabulary demo posts draw from.
var hashtagPool = []string{
	"golang", "programming", "webdev", "devops", "linux", "opensource",
	"gaming", "music", "movies", "books", "travel", "food", "fitness",
	"photography", "art", "science", "space", "history", "philosophy",
	"startups", "ai", "homelab", "pets", "nature", "coffee",
}

// Seeder orchestrates demo data generation on top of the Factory.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Seed populates the database with demo data: users, a friendship mesh,
// posts with hashtags, likes, comments, and direct message threads.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	s := NewSeeder(db, opts)

	users, err := s.SeedSocialMesh(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to seed users and friendships: %w", err)
	}
	log.Printf("%d users created", len(users))

	posts, err := s.SeedPosts(users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	if err := s.SeedEngagement(users, posts); err != nil {
		return fmt.Errorf("failed to seed likes and comments: %w", err)
	}

	if err := s.SeedConversations(users); err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE comments, likes, post_hashtags, hashtags, posts, messages, friendships, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

// SeedSocialMesh creates count users plus a friendship graph over them:
// every user gets a handful of accepted friends and the occasional
// pending request, so friend lists and request inboxes have content.
func (s *Seeder) SeedSocialMesh(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// A couple of well-known logins for manual testing.
	wellKnown := []string{"alice", "bob", "demo"}
	for _, name := range wellKnown {
		if len(users) >= count {
			break
		}
		user, err := s.factory.CreateUser(func(u *models.User) {
			u.Username = name
			u.Email = fmt.Sprintf("%s@example.com", name)
			u.DisplayName = gofakeit.Name()
		})
		if err != nil {
			// Already present from a previous run; not fatal.
			log.Printf("skipping well-known user %s: %v", name, err)
			continue
		}
		users = append(users, user)
	}

	for i := len(users); i < count; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			log.Printf("failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	// Accepted friendships: link each user to a few of the users after it
	// so edges are never attempted twice for the same pair.
	for i, user := range users {
		friends := s.factory.rng.Intn(4) + 1
		for j := 1; j <= friends && i+j < len(users); j++ {
			if err := s.factory.CreateAcceptedFriendship(user, users[i+j]); err != nil {
				return nil, err
			}
		}
	}

	// A sprinkling of pending requests between distant users.
	for i := 0; i+5 < len(users); i += 5 {
		if err := s.factory.CreatePendingRequest(users[i], users[i+5]); err != nil {
			return nil, err
		}
	}

	return users, nil
}

// SeedPosts creates count posts spread across the given users, then tags
// roughly two thirds of them with one to three hashtags from the pool.
func (s *Seeder) SeedPosts(users []*models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 || count <= 0 {
		return nil, nil
	}

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		posts = append(posts, s.factory.BuildPost(author))
	}

	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, err
	}

	for _, post := range posts {
		if s.factory.rng.Intn(3) == 0 {
			continue
		}
		tags := s.factory.rng.Intn(3) + 1
		for t := 0; t < tags; t++ {
			tag := hashtagPool[s.factory.rng.Intn(len(hashtagPool))]
			if err := s.factory.AttachHashtag(post, tag); err != nil {
				// Duplicate tag on the same post; harmless.
				continue
			}
		}
	}

	return posts, nil
}

// SeedEngagement adds likes and comments to the given posts.
func (s *Seeder) SeedEngagement(users []*models.User, posts []*models.Post) error {
	if len(users) == 0 {
		return nil
	}
	for _, post := range posts {
		likes := s.factory.rng.Intn(len(users)/2 + 1)
		for i := 0; i < likes; i++ {
			// Unique (user, post) index absorbs the occasional repeat pick.
			_ = s.factory.CreateLike(users[s.factory.rng.Intn(len(users))], post)
		}

		comments := s.factory.rng.Intn(4)
		for i := 0; i < comments; i++ {
			commenter := users[s.factory.rng.Intn(len(users))]
			if _, err := s.factory.CreateComment(commenter, post); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedConversations creates short direct-message threads between adjacent
// user pairs so the conversation list renders with history and unread counts.
func (s *Seeder) SeedConversations(users []*models.User) error {
	for i := 0; i+1 < len(users); i += 2 {
		a, b := users[i], users[i+1]
		messages := s.factory.rng.Intn(8) + 2
		for m := 0; m < messages; m++ {
			sender, receiver := a, b
			if m%2 == 1 {
				sender, receiver = b, a
			}
			if _, err := s.factory.CreateMessage(sender, receiver); err != nil {
				return err
			}
		}
	}
	return nil
}
