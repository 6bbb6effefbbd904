package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"quill/internal/apperr"
	"quill/internal/auth"
	"quill/internal/models"
	"quill/internal/store"
	"quill/internal/tasks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserInput creates an account. IsActive defaults to true.
type UserInput struct {
	Email       string
	Password    string
	FullName    string
	IsActive    *bool
	IsSuperuser bool
	IsStaff     bool
}

// UserUpdate changes an account. The role flags are honored only on the
// admin path.
type UserUpdate struct {
	Email       *string
	Password    *string
	FullName    *string
	IsActive    *bool
	IsSuperuser *bool
	IsStaff     *bool
}

type UserService struct {
	db               *gorm.DB
	store            *store.Store
	tokens           *auth.TokenManager
	queue            tasks.Queue
	avatars          *AvatarStore
	openRegistration bool
	log              *zap.Logger
}

func NewUserService(db *gorm.DB, st *store.Store, tokens *auth.TokenManager, queue tasks.Queue, avatars *AvatarStore, openRegistration bool, log *zap.Logger) *UserService {
	return &UserService{
		db:               db,
		store:            st,
		tokens:           tokens,
		queue:            queue,
		avatars:          avatars,
		openRegistration: openRegistration,
		log:              log,
	}
}

// Login checks credentials, stamps last_login and issues an access token.
func (s *UserService) Login(ctx context.Context, email, password string) (*Token, error) {
	tx := s.db.WithContext(ctx)

	user, err := s.store.Users.GetByEmail(tx, normalizeEmail(email))
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.HashedPassword, password) {
		return nil, apperr.Unauthorized("incorrect email or password")
	}
	if !user.IsActive {
		return nil, apperr.PermissionDenied("inactive user")
	}

	now := time.Now().UTC()
	if _, err := s.store.Users.Update(tx, user, store.UserPatch{LastLogin: &now}); err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Token{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	id, err := s.tokens.ParseAccess(token)
	if err != nil {
		return nil, apperr.Unauthorized("could not validate credentials")
	}
	user, err := s.store.Users.GetByID(s.db.WithContext(ctx), id)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("could not validate credentials")
		}
		return nil, err
	}
	return user, nil
}

// Register is self-service sign-up, allowed only with open registration.
func (s *UserService) Register(ctx context.Context, email, password, fullName string) (*models.User, error) {
	if !s.openRegistration {
		return nil, apperr.PermissionDenied("open user registration is forbidden on this server")
	}
	return s.Create(ctx, UserInput{Email: email, Password: password, FullName: fullName})
}

// Create stores a new account and queues the welcome email.
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	user, err := s.store.Users.Create(s.db.WithContext(ctx), store.UserCreate{
		Email:          normalizeEmail(in.Email),
		HashedPassword: hash,
		FullName:       in.FullName,
		IsActive:       active,
		IsSuperuser:    in.IsSuperuser,
		IsStaff:        in.IsStaff,
	})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			return nil, apperr.Conflict("the user with this email already exists in the system", err)
		}
		return nil, err
	}

	s.enqueue(ctx, tasks.Job{Name: tasks.JobNewAccountEmail, Payload: map[string]string{
		"email":     user.Email,
		"full_name": user.FullName,
	}})
	return user, nil
}

// Get returns a user; only superusers may read other accounts.
func (s *UserService) Get(ctx context.Context, actor *models.User, id uint) (*models.User, error) {
	if actor.ID != id && !actor.IsSuperuser {
		return nil, apperr.PermissionDenied("not enough permissions")
	}
	return s.store.Users.GetByID(s.db.WithContext(ctx), id)
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	return s.store.Users.GetMulti(s.db.WithContext(ctx), skip, limit)
}

// UpdateMe lets a user change their own email, password and name.
func (s *UserService) UpdateMe(ctx context.Context, actor *models.User, in UserUpdate) (*models.User, error) {
	in.IsActive, in.IsSuperuser, in.IsStaff = nil, nil, nil
	return s.update(ctx, actor.ID, in)
}

// UpdateUser is the superuser path and may change role flags.
func (s *UserService) UpdateUser(ctx context.Context, id uint, in UserUpdate) (*models.User, error) {
	return s.update(ctx, id, in)
}

func (s *UserService) update(ctx context.Context, id uint, in UserUpdate) (*models.User, error) {
	tx := s.db.WithContext(ctx)

	existing, err := s.store.Users.GetByID(tx, id)
	if err != nil {
		return nil, err
	}
	patch := store.UserPatch{
		FullName:    in.FullName,
		IsActive:    in.IsActive,
		IsSuperuser: in.IsSuperuser,
		IsStaff:     in.IsStaff,
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		patch.Email = &email
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		patch.HashedPassword = &hash
	}
	return s.store.Users.Update(tx, existing, patch)
}

// RecoverPassword queues a reset email. Unknown addresses are ignored so
// the endpoint does not reveal which emails are registered.
func (s *UserService) RecoverPassword(ctx context.Context, email string) error {
	user, err := s.store.Users.GetByEmail(s.db.WithContext(ctx), normalizeEmail(email))
	if apperr.Is(err, apperr.KindNotFound) {
		s.log.Info("password recovery for unknown email", zap.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.tokens.IssueReset(user.Email)
	if err != nil {
		return apperr.Storage(err)
	}
	s.enqueue(ctx, tasks.Job{Name: tasks.JobResetPasswordEmail, Payload: map[string]string{
		"email": user.Email,
		"token": token,
	}})
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	email, err := s.tokens.ParseReset(token)
	if err != nil {
		return apperr.Validation("invalid token")
	}

	tx := s.db.WithContext(ctx)
	user, err := s.store.Users.GetByEmail(tx, email)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return apperr.PermissionDenied("inactive user")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.store.Users.Update(tx, user, store.UserPatch{HashedPassword: &hash})
	return err
}

// SetAvatar stores a new avatar image and drops the previous file.
func (s *UserService) SetAvatar(ctx context.Context, actor *models.User, file io.Reader) (*models.User, error) {
	name, err := s.avatars.Save(file)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx)
	existing, err := s.store.Users.GetByID(tx, actor.ID)
	if err != nil {
		s.avatars.Remove(name)
		return nil, err
	}
	// Update reloads existing, which can write through the Avatar pointer.
	var previous string
	if existing.Avatar != nil {
		previous = *existing.Avatar
	}

	user, err := s.store.Users.Update(tx, existing, store.UserPatch{Avatar: &name})
	if err != nil {
		s.avatars.Remove(name)
		return nil, err
	}
	if previous != "" && previous != name {
		s.avatars.Remove(previous)
	}
	return user, nil
}

// enqueue hands a job to the queue. A full or unreachable queue costs the
// email, not the request.
func (s *UserService) enqueue(ctx context.Context, job tasks.Job) {
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Error("enqueue failed", zap.String("job", job.Name), zap.Error(err))
	}
}

func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperr.Validation(fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	if err != nil {
		return "", apperr.Storage(err)
	}
	return hash, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
