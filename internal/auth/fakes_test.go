package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindwell-app/mindwell-api/internal/user"
	"github.com/mindwell-app/mindwell-api/internal/validation"
)

// In-memory collaborators for service and handler tests. TTLs are
// accepted and ignored; expiry behavior belongs to the Redis stores.

type fakeUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*user.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, name, email, passwordHash string, userType user.Type) (*user.User, error) {
	email = validation.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return nil, user.ErrDuplicateEmail
	}
	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		UserType:     userType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byEmail[email] = u
	return copyUser(u), nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	email = validation.NormalizeEmail(email)
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			return copyUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) MarkEmailVerified(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == userID {
			u.IsEmailVerified = true
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return user.ErrNotFound
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return user.ErrNotFound
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEmail)
}

func copyUser(u *user.User) *user.User {
	c := *u
	return &c
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]Session)}
}

func (s *fakeSessionStore) Save(_ context.Context, sess Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = sess
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *fakeSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// fakeSecretStore implements both VerificationCodeStore and
// ResetTokenStore, mirroring RedisSecretStore.
type fakeSecretStore struct {
	mu     sync.Mutex
	codes  map[uuid.UUID]string
	resets map[string]uuid.UUID
}

func newFakeSecretStore() *fakeSecretStore {
	return &fakeSecretStore{
		codes:  make(map[uuid.UUID]string),
		resets: make(map[string]uuid.UUID),
	}
}

func (s *fakeSecretStore) SetCode(_ context.Context, userID uuid.UUID, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[userID] = code
	return nil
}

func (s *fakeSecretStore) GetCode(_ context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[userID]
	if !ok {
		return "", ErrCodeNotFound
	}
	return code, nil
}

func (s *fakeSecretStore) DeleteCode(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, userID)
	return nil
}

func (s *fakeSecretStore) Store(_ context.Context, userID uuid.UUID, token string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[token] = userID
	return nil
}

func (s *fakeSecretStore) Lookup(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.resets[token]
	if !ok {
		return uuid.Nil, ErrResetTokenNotFound
	}
	return userID, nil
}

func (s *fakeSecretStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resets, token)
	return nil
}

func (s *fakeSecretStore) codeFor(userID uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[userID]
}

func (s *fakeSecretStore) resetTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens := make([]string, 0, len(s.resets))
	for token := range s.resets {
		tokens = append(tokens, token)
	}
	return tokens
}

type sentMail struct {
	To     string
	Name   string
	Secret string
}

type fakeNotifier struct {
	mu            sync.Mutex
	verifications []sentMail
	resets        []sentMail
}

func (n *fakeNotifier) SendVerificationCode(_ context.Context, toEmail, name, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifications = append(n.verifications, sentMail{To: toEmail, Name: name, Secret: code})
	return nil
}

func (n *fakeNotifier) SendPasswordReset(_ context.Context, toEmail, name, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, sentMail{To: toEmail, Name: name, Secret: token})
	return nil
}

func (n *fakeNotifier) sentVerifications() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.verifications...)
}

func (n *fakeNotifier) sentResets() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.resets...)
}
