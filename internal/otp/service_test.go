package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisetu/krishisetu/internal/config"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []string
	bodies []string
	err    error
}

func (f *fakeSender) Send(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeSender) lastBody() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bodies) == 0 {
		return ""
	}
	return f.bodies[len(f.bodies)-1]
}

func testConfig() *config.OTPConfig {
	return &config.OTPConfig{
		Store:          "memory",
		Length:         4,
		Expiry:         10 * time.Minute,
		MaxAttempts:    3,
		ResendCooldown: time.Minute,
	}
}

func newTestService(t *testing.T) (*Service, *MemoryStore, *fakeSender, *time.Time) {
	t.Helper()

	store := NewMemoryStore(0)
	sender := &fakeSender{}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc := NewService(store, sender, testConfig(), logger)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := &now
	svc.now = func() time.Time { return *current }

	return svc, store, sender, current
}

func TestGenerateStoresAndSends(t *testing.T) {
	svc, store, sender, now := newTestService(t)
	ctx := context.Background()

	code, err := svc.Generate(ctx, "+919999999999")
	require.NoError(t, err)
	assert.Regexp(t, `^[1-9]\d{3}$`, code)

	rec, err := store.Get(ctx, "+919999999999")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, code, rec.Code)
	assert.Equal(t, 0, rec.Attempts)
	assert.Equal(t, now.Add(10*time.Minute), rec.ExpiresAt)
	assert.Equal(t, *now, rec.LastSent)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+919999999999", sender.sent[0])
	assert.Contains(t, sender.lastBody(), code)
	assert.Contains(t, sender.lastBody(), "Valid for 10 minutes")
}

func TestGenerateMissingPhone(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Generate(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = svc.Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestGenerateCooldown(t *testing.T) {
	svc, store, _, now := newTestService(t)
	ctx := context.Background()

	first, err := svc.Generate(ctx, "+15550001111")
	require.NoError(t, err)

	// Second request inside the cooldown window is rejected and the
	// stored code is untouched.
	*now = now.Add(30 * time.Second)
	_, err = svc.Generate(ctx, "+15550001111")
	require.ErrorIs(t, err, ErrRateLimited)

	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 30*time.Second, rateLimited.RetryAfter)

	rec, err := store.Get(ctx, "+15550001111")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, first, rec.Code)

	// Once the cooldown has elapsed a new code overwrites the old one.
	*now = now.Add(31 * time.Second)
	second, err := svc.Generate(ctx, "+15550001111")
	require.NoError(t, err)

	rec, err = store.Get(ctx, "+15550001111")
	require.NoError(t, err)
	assert.Equal(t, second, rec.Code)
	assert.Equal(t, 0, rec.Attempts)
}

func TestGenerateDeliveryFailureRollsBack(t *testing.T) {
	svc, store, sender, _ := newTestService(t)
	ctx := context.Background()

	sender.err = errors.New("carrier unreachable")

	_, err := svc.Generate(ctx, "+15550002222")
	require.ErrorIs(t, err, ErrDeliveryFailed)

	rec, err := store.Get(ctx, "+15550002222")
	require.NoError(t, err)
	assert.Nil(t, rec, "undelivered OTP must not remain stored")

	// The rollback also clears the cooldown, so the user can retry
	// immediately.
	sender.err = nil
	_, err = svc.Generate(ctx, "+15550002222")
	assert.NoError(t, err)
}

func TestVerifyWithoutGenerate(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Verify(context.Background(), "+15550003333", "1234")
	assert.ErrorIs(t, err, ErrNotRequested)
}

func TestVerifyMissingInput(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	assert.ErrorIs(t, svc.Verify(context.Background(), "", "1234"), ErrMissingInput)
	assert.ErrorIs(t, svc.Verify(context.Background(), "+15550003333", ""), ErrMissingInput)
}

func TestVerifySingleUse(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	code, err := svc.Generate(ctx, "+15550004444")
	require.NoError(t, err)

	require.NoError(t, svc.Verify(ctx, "+15550004444", code))

	// The record was deleted on success; the same code can never be
	// used twice.
	err = svc.Verify(ctx, "+15550004444", code)
	assert.ErrorIs(t, err, ErrNotRequested)
}

func TestVerifyExpired(t *testing.T) {
	svc, store, _, now := newTestService(t)
	ctx := context.Background()

	code, err := svc.Generate(ctx, "+15550005555")
	require.NoError(t, err)

	*now = now.Add(10*time.Minute + time.Second)

	// Expiry wins even over the correct code, and purges the record.
	err = svc.Verify(ctx, "+15550005555", code)
	assert.ErrorIs(t, err, ErrExpired)

	rec, err := store.Get(ctx, "+15550005555")
	require.NoError(t, err)
	assert.Nil(t, rec)

	err = svc.Verify(ctx, "+15550005555", code)
	assert.ErrorIs(t, err, ErrNotRequested)
}

func TestVerifyAttemptsExhaustion(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	code, err := svc.Generate(ctx, "+15550006666")
	require.NoError(t, err)
	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}

	// The cap is checked at the top of each call, so the third wrong
	// attempt still reports InvalidCode and the fourth call trips the
	// threshold.
	for i := 0; i < 3; i++ {
		err := svc.Verify(ctx, "+15550006666", wrong)
		assert.ErrorIs(t, err, ErrInvalidCode, "attempt %d", i+1)
	}

	err = svc.Verify(ctx, "+15550006666", wrong)
	assert.ErrorIs(t, err, ErrAttemptsExceeded)

	rec, err := store.Get(ctx, "+15550006666")
	require.NoError(t, err)
	assert.Nil(t, rec, "exhausted record must be purged")

	err = svc.Verify(ctx, "+15550006666", code)
	assert.ErrorIs(t, err, ErrNotRequested)
}

func TestVerifyCorrectCodeAfterFailedAttempt(t *testing.T) {
	svc, store, _, now := newTestService(t)
	ctx := context.Background()

	code, err := svc.Generate(ctx, "+919999999999")
	require.NoError(t, err)

	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}

	err = svc.Verify(ctx, "+919999999999", wrong)
	require.ErrorIs(t, err, ErrInvalidCode)

	rec, err := store.Get(ctx, "+919999999999")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Attempts)
	assert.Equal(t, now.Add(10*time.Minute), rec.ExpiresAt)

	require.NoError(t, svc.Verify(ctx, "+919999999999", code))

	err = svc.Verify(ctx, "+919999999999", code)
	assert.ErrorIs(t, err, ErrNotRequested)
}

func TestGenerateOverwritesPriorRecord(t *testing.T) {
	svc, _, _, now := newTestService(t)
	ctx := context.Background()

	first, err := svc.Generate(ctx, "+15550007777")
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)
	second, err := svc.Generate(ctx, "+15550007777")
	require.NoError(t, err)

	// The old code is superseded; only the latest one verifies.
	if first != second {
		err = svc.Verify(ctx, "+15550007777", first)
		assert.ErrorIs(t, err, ErrInvalidCode)
	}
	assert.NoError(t, svc.Verify(ctx, "+15550007777", second))
}

func TestGenerateCodeRange(t *testing.T) {
	re := regexp.MustCompile(`^[1-9]\d{3}$`)
	for i := 0; i < 200; i++ {
		code, err := generateCode(4)
		require.NoError(t, err)
		assert.True(t, re.MatchString(code), "code %q out of range", code)
	}

	code, err := generateCode(6)
	require.NoError(t, err)
	assert.Regexp(t, `^[1-9]\d{5}$`, code)
}
