package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"blogapp/internal/featureflags"
	"blogapp/internal/models"
	"blogapp/internal/repository"
	"blogapp/internal/testutil"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	auth     *AuthService
	articles *ArticleService
}

func newFixture(t *testing.T, flags string) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	hasher, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return &fixture{
		db:       db,
		auth:     NewAuthService(repository.NewUserRepository(db, nil), hasher),
		articles: NewArticleService(repository.NewArticleRepository(db), featureflags.NewManager(flags)),
	}
}

func (f *fixture) register(t *testing.T, email string) models.Identity {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{Email: email, Name: "User", Password: "pw123456"})
	require.NoError(t, err)
	return models.IdentityOf(u)
}

func assertValidation(t *testing.T, err error, field, code string) {
	t.Helper()
	var verr *models.ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(field, code), "expected %s/%s in %v", field, code, verr.Fields)
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	u, err := f.auth.Register(ctx, RegisterInput{Email: "  A@X.com ", Name: " Alice ", Password: "pw123456"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
	assert.NotEqual(t, "pw123456", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw123456")))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.register(t, "dup@x.com")

	_, err := f.auth.Register(ctx, RegisterInput{Email: "DUP@x.com", Name: "Someone else", Password: "another-password"})
	assertValidation(t, err, "email", models.CodeDuplicateEmail)

	var count int64
	require.NoError(t, f.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegister_ReportsEveryViolation(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.auth.Register(context.Background(), RegisterInput{})
	var verr *models.ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Email can't be blank",
		"Name can't be blank",
		"Password can't be blank",
	}, verr.Messages())

	_, err = f.auth.Register(context.Background(), RegisterInput{
		Email: "a@x.com", Name: "A", Password: strings.Repeat("x", 73),
	})
	assertValidation(t, err, "password", models.CodeTooLong)
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.auth.Register(ctx, RegisterInput{Email: "race@x.com", Name: "R", Password: "pw123456"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assertValidation(t, err, "email", models.CodeDuplicateEmail)
	}
	assert.Equal(t, 1, succeeded)
}

func TestRegisterThenAuthenticate_Generated(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	faker := gofakeit.New(7)

	for i := 0; i < 10; i++ {
		email := strings.ToLower(faker.LetterN(12)) + "@example.com"
		password := faker.Password(true, true, true, true, false, 16)

		u, err := f.auth.Register(ctx, RegisterInput{Email: email, Name: faker.Name(), Password: password})
		require.NoError(t, err, email)

		got, err := f.auth.Authenticate(ctx, email, password)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	f.register(t, "a@x.com")

	_, err := f.auth.Authenticate(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = f.auth.Authenticate(ctx, "nobody@x.com", "pw123456")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	u, err := f.auth.Authenticate(ctx, " A@X.COM", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
}

func TestResolveUser(t *testing.T) {
	f := newFixture(t, "")
	who := f.register(t, "a@x.com")

	u, err := f.auth.ResolveUser(context.Background(), who.UserID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "a@x.com", u.Email)

	u, err = f.auth.ResolveUser(context.Background(), 9999)
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	ctx := context.Background()

	digest, err := h.Hash(ctx, "secret")
	require.NoError(t, err)

	ok, err := h.Compare(ctx, digest, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(ctx, digest, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.Compare(ctx, digest, strings.Repeat("x", 100))
	require.NoError(t, err, "an over-long password is a mismatch, not a failure")
	assert.False(t, ok)

	max := strings.Repeat("p", 72)
	longDigest, err := h.Hash(ctx, max)
	require.NoError(t, err)
	ok, err = h.Compare(ctx, longDigest, max)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.Compare(ctx, longDigest, max+"EXTRA")
	require.NoError(t, err)
	assert.False(t, ok, "bytes past 72 must not be ignored")

	ok, err = h.Compare(ctx, "", "blogapp-dummy-password")
	require.NoError(t, err)
	assert.False(t, ok, "the dummy digest never authenticates")

	_, err = NewPasswordHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestAuthenticate_RejectsPasswordWithExtraBytes(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	password := strings.Repeat("p", 72)

	u, err := f.auth.Register(ctx, RegisterInput{Email: "long@x.com", Name: "Long", Password: password})
	require.NoError(t, err)

	got, err := f.auth.Authenticate(ctx, "long@x.com", password)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = f.auth.Authenticate(ctx, "long@x.com", password+"EXTRA-GARBAGE")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Nil(t, got)
}

func TestArticleLifecycle(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	who := f.register(t, "a@x.com")

	a, err := f.articles.Create(ctx, who, models.ArticleInput{Title: "T", Body: "0123456789"})
	require.NoError(t, err)
	assert.False(t, a.Published)
	assert.Equal(t, who.UserID, a.UserID)

	list, err := f.articles.List(ctx, who)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "T", list[0].Title)

	require.NoError(t, f.articles.Destroy(ctx, who, a.ID))

	list, err = f.articles.List(ctx, who)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.articles.Get(ctx, who, a.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	who := f.register(t, "a@x.com")

	_, err := f.articles.Create(ctx, who, models.ArticleInput{Title: "T", Body: "012345678"})
	assertValidation(t, err, "body", models.CodeTooShort)

	_, err = f.articles.Create(ctx, who, models.ArticleInput{Body: "0123456789"})
	assertValidation(t, err, "title", models.CodeMissingField)

	published := true
	a, err := f.articles.Create(ctx, who, models.ArticleInput{Title: "T", Body: "0123456789", Published: &published})
	require.NoError(t, err)
	assert.True(t, a.Published)
}

func TestForeignArticlesLookAbsent(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	owner := f.register(t, "owner@x.com")
	other := f.register(t, "other@x.com")

	a, err := f.articles.Create(ctx, owner, models.ArticleInput{Title: "T", Body: "0123456789"})
	require.NoError(t, err)

	title := "Hijacked"
	_, errForeign := f.articles.Update(ctx, other, a.ID, models.ArticlePatch{Title: &title})
	_, errAbsent := f.articles.Update(ctx, other, 9999, models.ArticlePatch{Title: &title})
	assert.ErrorIs(t, errForeign, models.ErrNotFound)
	assert.Equal(t, errAbsent.Error(), errForeign.Error())

	assert.ErrorIs(t, f.articles.Destroy(ctx, other, a.ID), models.ErrNotFound)
	assert.ErrorIs(t, f.articles.Destroy(ctx, other, 9999), models.ErrNotFound)

	list, err := f.articles.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := f.articles.Get(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
}

func TestGet_ReadScoping(t *testing.T) {
	ctx := context.Background()

	t.Run("default allows any authenticated reader", func(t *testing.T) {
		f := newFixture(t, "")
		owner := f.register(t, "owner@x.com")
		other := f.register(t, "other@x.com")
		a, err := f.articles.Create(ctx, owner, models.ArticleInput{Title: "T", Body: "0123456789"})
		require.NoError(t, err)

		got, err := f.articles.Get(ctx, other, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
	})

	t.Run("owner_scoped_reads hides foreign articles", func(t *testing.T) {
		f := newFixture(t, "owner_scoped_reads=on")
		owner := f.register(t, "owner@x.com")
		other := f.register(t, "other@x.com")
		a, err := f.articles.Create(ctx, owner, models.ArticleInput{Title: "T", Body: "0123456789"})
		require.NoError(t, err)

		_, err = f.articles.Get(ctx, other, a.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = f.articles.Get(ctx, owner, a.ID)
		assert.NoError(t, err)
	})
}

func TestUpdate_PartialAndRevalidated(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	who := f.register(t, "a@x.com")

	a, err := f.articles.Create(ctx, who, models.ArticleInput{Title: "T", Body: "0123456789"})
	require.NoError(t, err)

	published := true
	updated, err := f.articles.Update(ctx, who, a.ID, models.ArticlePatch{Published: &published})
	require.NoError(t, err)
	assert.True(t, updated.Published)
	assert.Equal(t, "T", updated.Title)
	assert.Equal(t, "0123456789", updated.Body)

	title := "New title"
	short := "short"
	_, err = f.articles.Update(ctx, who, a.ID, models.ArticlePatch{Title: &title, Body: &short})
	assertValidation(t, err, "body", models.CodeTooShort)

	got, err := f.articles.Get(ctx, who, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title, "a rejected update changes nothing")
}

// MockArticleRepository is a mock of the ArticleRepository interface
type MockArticleRepository struct {
	mock.Mock
}

func (m *MockArticleRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Article, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Article), args.Error(1)
}

func (m *MockArticleRepository) FindByID(ctx context.Context, id uint) (*models.Article, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Article), args.Bool(1), args.Error(2)
}

func (m *MockArticleRepository) FindOwned(ctx context.Context, ownerID, id uint) (*models.Article, bool, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Article), args.Bool(1), args.Error(2)
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	args := m.Called(ctx, article)
	return args.Error(0)
}

func (m *MockArticleRepository) UpdateOwned(ctx context.Context, ownerID, id uint, apply func(*models.Article) error) (*models.Article, bool, error) {
	args := m.Called(ctx, ownerID, id, apply)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Article), args.Bool(1), args.Error(2)
}

func (m *MockArticleRepository) DeleteOwned(ctx context.Context, ownerID, id uint) (bool, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Bool(0), args.Error(1)
}

func TestArticleService_PropagatesInternalErrors(t *testing.T) {
	dbDown := models.NewInternalError(errors.New("db down"))
	who := models.Identity{UserID: 1}
	ctx := context.Background()

	repo := new(MockArticleRepository)
	repo.On("ListByOwner", mock.Anything, uint(1)).Return(nil, dbDown)
	repo.On("FindByID", mock.Anything, uint(5)).Return(nil, false, dbDown)
	repo.On("DeleteOwned", mock.Anything, uint(1), uint(5)).Return(false, dbDown)
	repo.On("UpdateOwned", mock.Anything, uint(1), uint(5), mock.Anything).Return(nil, false, dbDown)

	svc := NewArticleService(repo, nil)

	_, err := svc.List(ctx, who)
	assert.Equal(t, 500, models.HTTPStatus(err))
	_, err = svc.Get(ctx, who, 5)
	assert.Equal(t, 500, models.HTTPStatus(err))
	_, err = svc.Update(ctx, who, 5, models.ArticlePatch{})
	assert.Equal(t, 500, models.HTTPStatus(err))
	err = svc.Destroy(ctx, who, 5)
	assert.Equal(t, 500, models.HTTPStatus(err))

	repo.AssertExpectations(t)
}

func TestArticleService_GetUsesOwnedLookupWhenScoped(t *testing.T) {
	repo := new(MockArticleRepository)
	repo.On("FindOwned", mock.Anything, uint(7), uint(3)).Return(nil, false, nil)

	svc := NewArticleService(repo, featureflags.NewManager("owner_scoped_reads=on"))
	_, err := svc.Get(context.Background(), models.Identity{UserID: 7}, 3)

	assert.ErrorIs(t, err, models.ErrNotFound)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestArticleService_CreateRejectsBeforeTouchingStorage(t *testing.T) {
	repo := new(MockArticleRepository)
	svc := NewArticleService(repo, nil)

	_, err := svc.Create(context.Background(), models.Identity{UserID: 1}, models.ArticleInput{Title: "T", Body: "too short"})

	assertValidation(t, err, "body", models.CodeTooShort)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
