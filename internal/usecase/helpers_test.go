package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"disable-help/internal/data/repository"
	"disable-help/internal/dto/request"
	"disable-help/pkg/mailer"
	"disable-help/pkg/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeMailer) messages() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailer.Message(nil), f.sent...)
}

type authEnv struct {
	svc    *authService
	repo   *repository.Repository
	tokens *utils.JWTIssuer
	mail   *fakeMailer
	clock  time.Time
}

func (e *authEnv) advance(d time.Duration) { e.clock = e.clock.Add(d) }

func newAuthEnv(t *testing.T, log *zap.Logger) *authEnv {
	t.Helper()

	if log == nil {
		log = zaptest.NewLogger(t)
	}

	env := &authEnv{
		repo: repository.NewMemoryRepository(log),
		tokens: utils.NewJWTIssuer(utils.JWTConfig{
			Secret:             "test-secret",
			Issuer:             "disable-help",
			ExpiryHours:        1,
			ResetExpiryMinutes: 15,
		}),
		mail:  &fakeMailer{},
		clock: time.Now(),
	}

	env.svc = NewAuthService(env.repo, utils.NewBcryptHasher(bcrypt.MinCost), env.tokens, env.mail, log).(*authService)
	env.svc.now = func() time.Time { return env.clock }
	env.svc.generateOTP = func() (string, error) { return "123456", nil }

	return env
}

func (e *authEnv) register(t *testing.T, email, password, role string) string {
	t.Helper()

	phone := "0400000000"
	resp, err := e.svc.Register(context.Background(), &request.RegisterRequest{
		Email:       email,
		Password:    password,
		FirstName:   "Jo",
		LastName:    "Doe",
		Role:        role,
		PhoneNumber: &phone,
	})
	require.NoError(t, err)
	return resp.ID
}
