// Package seed creates demo users and articles for development.
// Everything goes through the services so validation and hashing apply.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"blogapp/internal/cache"
	"blogapp/internal/middleware"
	"blogapp/internal/models"
	"blogapp/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoPassword is the password every seeded user logs in with.
const DemoPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	ArticlesPerUser int
	// Seed makes the generated content reproducible. Zero picks a random seed.
	Seed int64
}

// Seeder generates demo content.
type Seeder struct {
	auth     *service.AuthService
	articles *service.ArticleService
	faker    *gofakeit.Faker
	opts     Options
}

// NewSeeder creates a Seeder writing through the given services.
func NewSeeder(auth *service.AuthService, articles *service.ArticleService, opts Options) *Seeder {
	return &Seeder{
		auth:     auth,
		articles: articles,
		faker:    gofakeit.New(opts.Seed),
		opts:     opts,
	}
}

// Result summarizes what Run created.
type Result struct {
	Users    []models.User
	Articles int
}

// Run registers NumUsers users and gives each ArticlesPerUser articles.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.auth.Register(ctx, service.RegisterInput{
			Email:    s.email(i),
			Name:     s.faker.Name(),
			Password: DemoPassword,
		})
		if err != nil {
			return res, fmt.Errorf("seed user %d: %w", i, err)
		}
		res.Users = append(res.Users, *user)

		who := models.IdentityOf(user)
		for j := 0; j < s.opts.ArticlesPerUser; j++ {
			published := s.faker.Bool()
			if _, err := s.articles.Create(ctx, who, models.ArticleInput{
				Title:     strings.TrimSuffix(s.faker.Sentence(4), "."),
				Body:      s.faker.Paragraph(2, 4, 12, "\n\n"),
				Published: &published,
			}); err != nil {
				return res, fmt.Errorf("seed article for user %d: %w", user.ID, err)
			}
			res.Articles++
		}
	}

	middleware.Logger.InfoContext(ctx, "seeded demo data",
		slog.Int("users", len(res.Users)),
		slog.Int("articles", res.Articles),
	)
	return res, nil
}

// email is unique per index and only uses characters every validator accepts.
func (s *Seeder) email(i int) string {
	return fmt.Sprintf("%s.%d@example.com", strings.ToLower(s.faker.LetterN(8)), i)
}

// ClearAll removes every article and user and evicts the deleted users from c,
// so their tokens stop resolving at once. c may be nil.
func ClearAll(ctx context.Context, db *gorm.DB, c *cache.Cache) error {
	var ids []uint
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Article{}).Error; err != nil {
			return fmt.Errorf("clear articles: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("clear users: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range ids {
		c.Invalidate(ctx, cache.UserKey(id))
	}
	return nil
}
