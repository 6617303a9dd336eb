package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, clock *fakeClock) *Service {
	t.Helper()
	svc, err := NewService(testSecret, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(t, clock)

	for _, id := range []uint{1, 42, 987654} {
		tok, err := svc.Issue(id)
		require.NoError(t, err)

		got, err := svc.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestVerify_Expiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc := newTestService(t, clock)

	tok, err := svc.Issue(7)
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour - time.Second)
	_, err = svc.Verify(tok)
	assert.NoError(t, err, "token must be valid just before exp")

	clock.t = time.Unix(1_700_000_000, 0).Add(time.Hour)
	_, err = svc.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken, "token must be invalid at exp")
	assert.Equal(t, "expired", Reason(err))

	clock.t = clock.t.Add(24 * time.Hour)
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedSignature(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	tok, err := svc.Issue(3)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, "signature", Reason(err))
}

func TestVerify_SwappedPayload(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	tokA, err := svc.Issue(1)
	require.NoError(t, err)
	tokB, err := svc.Issue(2)
	require.NoError(t, err)

	a := strings.Split(tokA, ".")
	b := strings.Split(tokB, ".")
	forged := a[0] + "." + b[1] + "." + a[2]

	_, err = svc.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Rejects(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	other, err := NewService("a-completely-different-secret-value", time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	foreign, err := other.Issue(5)
	require.NoError(t, err)

	otherIssuer, err := NewService(testSecret, time.Hour, WithClock(clock.Now), WithIssuer("someone-else"))
	require.NoError(t, err)
	wrongIss, err := otherIssuer.Issue(5)
	require.NoError(t, err)

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := jwt.RegisteredClaims{
		Subject:   "5",
		Issuer:    DefaultIssuer,
		Audience:  jwt.ClaimStrings{Audience},
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}
	noExp := base
	noExp.ExpiresAt = nil
	zeroSub := base
	zeroSub.Subject = "0"
	textSub := base
	textSub.Subject = "alice"

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "abc.def"},
		{"wrong secret", foreign},
		{"wrong issuer", wrongIss},
		{"alg none", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, base)},
		{"hs512", sign(jwt.SigningMethodHS512, []byte(testSecret), base)},
		{"missing exp", sign(jwt.SigningMethodHS256, []byte(testSecret), noExp)},
		{"zero subject", sign(jwt.SigningMethodHS256, []byte(testSecret), zeroSub)},
		{"non numeric subject", sign(jwt.SigningMethodHS256, []byte(testSecret), textSub)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				id, err := svc.Verify(tt.token)
				assert.ErrorIs(t, err, ErrInvalidToken)
				assert.Zero(t, id)
			})
		})
	}
}

func TestNewService(t *testing.T) {
	t.Parallel()

	_, err := NewService("", time.Hour)
	assert.Error(t, err)

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	svc, err := NewService(testSecret, 0, WithClock(clock.Now))
	require.NoError(t, err)

	tok, err := svc.Issue(3)
	require.NoError(t, err)
	clock.t = clock.t.Add(DefaultTTL - time.Second)
	_, err = svc.Verify(tok)
	assert.NoError(t, err, "zero ttl falls back to DefaultTTL")
	clock.t = clock.t.Add(time.Second)
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Issue(0)
	assert.Error(t, err)
}
