package server

import (
	"blogapp/internal/models"

	"github.com/gofiber/fiber/v2"
)

// articleRequest is the create/update body. The client may nest it under "article".
type articleRequest struct {
	Title     *string         `json:"title"`
	Body      *string         `json:"body"`
	Published *bool           `json:"published"`
	Article   *articleRequest `json:"article,omitempty" swaggerignore:"true"`
}

func (r *articleRequest) inner() *articleRequest { return r.Article }

func (r articleRequest) input() models.ArticleInput {
	in := models.ArticleInput{Published: r.Published}
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.Body != nil {
		in.Body = *r.Body
	}
	return in
}

func (r articleRequest) patch() models.ArticlePatch {
	return models.ArticlePatch{Title: r.Title, Body: r.Body, Published: r.Published}
}

// ListArticles handles GET /articles
// @Summary List own articles
// @Description Returns the requester's articles, newest first
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Article
// @Failure 401 {object} models.ErrorResponse
// @Router /articles [get]
func (s *Server) ListArticles(c *fiber.Ctx) error {
	who, err := s.identity(c)
	if err != nil {
		return nil
	}

	articles, err := s.articleService.List(c.UserContext(), who)
	if err != nil {
		return s.respond(c, err)
	}
	if articles == nil {
		articles = []models.Article{}
	}
	return c.JSON(articles)
}

// GetArticle handles GET /articles/:id
// @Summary Get an article
// @Tags articles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Success 200 {object} models.Article
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id} [get]
func (s *Server) GetArticle(c *fiber.Ctx) error {
	who, err := s.identity(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	article, err := s.articleService.Get(c.UserContext(), who, id)
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(article)
}

// CreateArticle handles POST /articles
// @Summary Create an article
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body articleRequest true "Article"
// @Success 201 {object} models.Article
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 422 {object} models.ValidationResponse
// @Router /articles [post]
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	who, err := s.identity(c)
	if err != nil {
		return nil
	}
	req, err := parseWrapped(c, (*articleRequest).inner)
	if err != nil {
		return s.respond(c, err)
	}

	article, err := s.articleService.Create(c.UserContext(), who, req.input())
	if err != nil {
		return s.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// UpdateArticle handles PUT and PATCH /articles/:id. Absent fields are left untouched.
// @Summary Update an article
// @Tags articles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Param request body articleRequest true "Fields to change"
// @Success 200 {object} models.Article
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ValidationResponse
// @Router /articles/{id} [put]
// @Router /articles/{id} [patch]
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	who, err := s.identity(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}
	req, err := parseWrapped(c, (*articleRequest).inner)
	if err != nil {
		return s.respond(c, err)
	}

	article, err := s.articleService.Update(c.UserContext(), who, id, req.patch())
	if err != nil {
		return s.respond(c, err)
	}
	return c.JSON(article)
}

// DeleteArticle handles DELETE /articles/:id
// @Summary Delete an article
// @Tags articles
// @Security BearerAuth
// @Param id path int true "Article ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /articles/{id} [delete]
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	who, err := s.identity(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	if err := s.articleService.Destroy(c.UserContext(), who, id); err != nil {
		return s.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
