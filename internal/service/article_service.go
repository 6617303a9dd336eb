package service

import (
	"context"

	"blogapp/internal/featureflags"
	"blogapp/internal/models"
	"blogapp/internal/observability"
	"blogapp/internal/repository"
	"blogapp/internal/validation"
)

// FlagChecker reports whether a feature flag is on for a user.
type FlagChecker interface {
	Enabled(name string, userID uint) bool
}

// ArticleService applies the ownership rules to every article operation.
// Writes are always scoped to the requester; see Get for reads.
type ArticleService struct {
	articles repository.ArticleRepository
	flags    FlagChecker
}

// NewArticleService creates an ArticleService. flags may be nil.
func NewArticleService(articles repository.ArticleRepository, flags FlagChecker) *ArticleService {
	return &ArticleService{articles: articles, flags: flags}
}

var errArticleNotFound = models.NewNotFoundError("Article")

// List returns the requester's articles, newest first.
func (s *ArticleService) List(ctx context.Context, who models.Identity) ([]models.Article, error) {
	ctx, span := observability.StartService(ctx, "ArticleService", "List")
	articles, err := s.articles.ListByOwner(ctx, who.UserID)
	observability.EndSpan(span, err)
	return articles, err
}

// Get returns the article with id. Unless owner_scoped_reads is on, any
// authenticated requester may read any article.
func (s *ArticleService) Get(ctx context.Context, who models.Identity, id uint) (*models.Article, error) {
	ctx, span := observability.StartService(ctx, "ArticleService", "Get")

	var (
		article *models.Article
		found   bool
		err     error
	)
	if s.OwnerScopedReads(who) {
		article, found, err = s.articles.FindOwned(ctx, who.UserID, id)
	} else {
		article, found, err = s.articles.FindByID(ctx, id)
	}
	observability.EndSpan(span, err)

	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errArticleNotFound
	}
	return article, nil
}

// OwnerScopedReads reports whether Get is restricted to the requester's own articles.
func (s *ArticleService) OwnerScopedReads(who models.Identity) bool {
	return s.flags != nil && s.flags.Enabled(featureflags.OwnerScopedReads, who.UserID)
}

// Create stores a new article owned by the requester.
func (s *ArticleService) Create(ctx context.Context, who models.Identity, in models.ArticleInput) (article *models.Article, err error) {
	ctx, span := observability.StartService(ctx, "ArticleService", "Create")
	defer func() {
		observability.ArticleOperations.WithLabelValues("create", observability.Outcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	article = &models.Article{
		Title:  in.Title,
		Body:   in.Body,
		UserID: who.UserID,
	}
	if in.Published != nil {
		article.Published = *in.Published
	}

	if err := validation.Article(article).Err(); err != nil {
		return nil, err
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// Update applies patch to one of the requester's articles. The result must
// pass the same rules as a new article or nothing is saved.
func (s *ArticleService) Update(ctx context.Context, who models.Identity, id uint, patch models.ArticlePatch) (article *models.Article, err error) {
	ctx, span := observability.StartService(ctx, "ArticleService", "Update")
	defer func() {
		observability.ArticleOperations.WithLabelValues("update", observability.Outcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	updated, found, err := s.articles.UpdateOwned(ctx, who.UserID, id, func(a *models.Article) error {
		patch.Apply(a)
		return validation.Article(a).Err()
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errArticleNotFound
	}
	return updated, nil
}

// Destroy permanently removes one of the requester's articles.
func (s *ArticleService) Destroy(ctx context.Context, who models.Identity, id uint) (err error) {
	ctx, span := observability.StartService(ctx, "ArticleService", "Destroy")
	defer func() {
		observability.ArticleOperations.WithLabelValues("destroy", observability.Outcome(err)).Inc()
		observability.EndSpan(span, err)
	}()

	deleted, err := s.articles.DeleteOwned(ctx, who.UserID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errArticleNotFound
	}
	return nil
}
