package repository

import (
	"context"
	"errors"

	"blogapp/internal/models"
	"blogapp/internal/observability"

	"gorm.io/gorm"
)

// ArticleRepository defines persistence operations for articles.
// Owner-scoped methods never touch an article belonging to someone else.
type ArticleRepository interface {
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Article, error)
	FindByID(ctx context.Context, id uint) (*models.Article, bool, error)
	FindOwned(ctx context.Context, ownerID, id uint) (*models.Article, bool, error)
	Create(ctx context.Context, article *models.Article) error
	// UpdateOwned loads the owner's article, runs apply on it and saves the
	// result in one transaction. An error from apply rolls everything back.
	UpdateOwned(ctx context.Context, ownerID, id uint, apply func(*models.Article) error) (*models.Article, bool, error)
	DeleteOwned(ctx context.Context, ownerID, id uint) (bool, error)
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

var errArticleMissing = errors.New("article missing")

func (r *articleRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Article, error) {
	ctx, span := observability.StartRepository(ctx, "ListByOwner", "articles")
	defer observability.TrackQuery("select", "articles")()

	articles := make([]models.Article, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&articles).Error
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return articles, nil
}

func (r *articleRepository) FindByID(ctx context.Context, id uint) (*models.Article, bool, error) {
	ctx, span := observability.StartRepository(ctx, "FindByID", "articles")
	defer observability.TrackQuery("select", "articles")()

	article, found, err := first(r.db.WithContext(ctx).Where("id = ?", id))
	observability.EndSpan(span, err)
	return article, found, err
}

func (r *articleRepository) FindOwned(ctx context.Context, ownerID, id uint) (*models.Article, bool, error) {
	ctx, span := observability.StartRepository(ctx, "FindOwned", "articles")
	defer observability.TrackQuery("select", "articles")()

	article, found, err := first(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID))
	observability.EndSpan(span, err)
	return article, found, err
}

func first(q *gorm.DB) (*models.Article, bool, error) {
	var article models.Article
	err := q.First(&article).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}
	return &article, true, nil
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	ctx, span := observability.StartRepository(ctx, "Create", "articles")
	defer observability.TrackQuery("insert", "articles")()

	err := r.db.WithContext(ctx).Create(article).Error
	observability.EndSpan(span, err)
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *articleRepository) UpdateOwned(ctx context.Context, ownerID, id uint, apply func(*models.Article) error) (*models.Article, bool, error) {
	ctx, span := observability.StartRepository(ctx, "UpdateOwned", "articles")
	defer observability.TrackQuery("update", "articles")()

	var updated models.Article
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&updated).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errArticleMissing
			}
			return err
		}

		if err := apply(&updated); err != nil {
			return err
		}
		updated.ID = id
		updated.UserID = ownerID

		return tx.Save(&updated).Error
	})

	switch {
	case errors.Is(err, errArticleMissing):
		observability.EndSpan(span, nil)
		return nil, false, nil
	case err != nil:
		observability.EndSpan(span, err)
		var verr *models.ValidationErrors
		if errors.As(err, &verr) {
			return nil, true, err
		}
		return nil, true, models.NewInternalError(err)
	}
	observability.EndSpan(span, nil)
	return &updated, true, nil
}

func (r *articleRepository) DeleteOwned(ctx context.Context, ownerID, id uint) (bool, error) {
	ctx, span := observability.StartRepository(ctx, "DeleteOwned", "articles")
	defer observability.TrackQuery("delete", "articles")()

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&models.Article{})
	observability.EndSpan(span, res.Error)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
