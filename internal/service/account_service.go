package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"orders-api/internal/auth"
	"orders-api/internal/mail"
	"orders-api/internal/metrics"
	"orders-api/internal/model"
	"orders-api/internal/repository"
	"orders-api/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	maxFailedAttempts = 3
	lockoutDuration   = 5 * time.Minute
)

var (
	errEmailExists     = model.NewDomainError(model.ErrCodeAlreadyExists, "a user with the same email already exists")
	errWrongPassword   = model.NewDomainError(model.ErrCodeInvalidCredentials, "the current password is incorrect")
	errUserDoesntExist = model.NotFound("user")
)

// AccountDeps groups the collaborators of the account service.
type AccountDeps struct {
	Users       repository.UserRepository
	Tokens      *auth.TokenService
	Hasher      auth.PasswordHasher
	Mailer      mail.Sender
	Files       storage.FileStorage
	Metrics     *metrics.Metrics
	FrontendURL string
}

// accountService implements AccountService.
type accountService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	hasher      auth.PasswordHasher
	mailer      mail.Sender
	photos      imageUploader
	metrics     *metrics.Metrics
	frontendURL string
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAccountService creates a new account service.
func NewAccountService(deps AccountDeps, logger zerolog.Logger) AccountService {
	logger = logger.With().Str("service", "account").Logger()
	return &accountService{
		users:       deps.Users,
		tokens:      deps.Tokens,
		hasher:      deps.Hasher,
		mailer:      deps.Mailer,
		photos:      imageUploader{files: deps.Files, container: storage.ContainerUsers, logger: logger},
		metrics:     deps.Metrics,
		frontendURL: strings.TrimRight(deps.FrontendURL, "/"),
		logger:      logger,
		now:         time.Now,
	}
}

// Register creates an unconfirmed User account and mails the confirmation
// link. When the mail cannot be sent the account is kept so the user can
// ask for a new link.
func (s *accountService) Register(ctx context.Context, req *model.UserRequest) (*model.User, error) {
	if req.Password != req.PasswordConfirm {
		return nil, model.ErrPasswordMismatch
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return nil, errEmailExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	var uploaded []string
	photo := ""
	if req.Photo != "" {
		urls, newUploads, err := s.photos.upload(ctx, []string{req.Photo})
		if err != nil {
			return nil, err
		}
		photo, uploaded = urls[0], newUploads
	}

	user := &model.User{
		Email:        strings.TrimSpace(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Document:     req.Document,
		PhoneNumber:  req.PhoneNumber,
		Address:      req.Address,
		Photo:        photo,
		UserType:     model.UserTypeUser,
		CityID:       req.CityID,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.photos.discard(ctx, uploaded)
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, errEmailExists
		}
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")

	if err := s.sendConfirmation(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ConfirmEmail marks the account as confirmed when the token matches.
func (s *accountService) ConfirmEmail(ctx context.Context, userID, token string) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return errUserDoesntExist
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return errUserDoesntExist
	}

	if err := s.tokens.VerifyPurposeToken(normalizeToken(token), user, auth.PurposeEmailConfirmation); err != nil {
		s.logger.Warn().Str("user_id", user.ID.String()).Msg("invalid confirmation token")
		return model.ErrInvalidToken
	}

	if err := s.users.ConfirmEmail(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("email confirmed")
	return nil
}

// ResendConfirmation mails a fresh confirmation link.
func (s *accountService) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.sendConfirmation(ctx, user)
}

// Login checks the credentials and issues an access token. Three wrong
// passwords in a row lock the account for five minutes.
func (s *accountService) Login(ctx context.Context, req *model.LoginRequest) (*model.Token, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		s.loginFailed("unknown_user")
		return nil, model.ErrInvalidCredentials
	}

	now := s.now()
	if user.LockedOut(now) {
		s.loginFailed("locked_out")
		return nil, model.ErrLockedOut
	}

	if !s.hasher.Compare(user.PasswordHash, req.Password) {
		return nil, s.registerFailure(ctx, user, now)
	}

	if !user.EmailConfirmed {
		s.loginFailed("not_confirmed")
		return nil, model.ErrNotConfirmed
	}

	if user.AccessFailedCount > 0 || user.LockoutEnd != nil {
		if err := s.users.UpdateLoginState(ctx, user.ID, 0, nil); err != nil {
			return nil, fmt.Errorf("failed to reset login state: %w", err)
		}
	}

	token, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return token, nil
}

func (s *accountService) registerFailure(ctx context.Context, user *model.User, now time.Time) error {
	failed := user.AccessFailedCount + 1
	var lockoutEnd *time.Time
	if failed >= maxFailedAttempts {
		end := now.Add(lockoutDuration)
		lockoutEnd = &end
		failed = 0
	}

	if err := s.users.UpdateLoginState(ctx, user.ID, failed, lockoutEnd); err != nil {
		return fmt.Errorf("failed to store login state: %w", err)
	}

	if lockoutEnd != nil {
		s.loginFailed("locked_out")
		s.logger.Warn().Str("user_id", user.ID.String()).Time("until", *lockoutEnd).Msg("account locked")
		return model.ErrLockedOut
	}
	s.loginFailed("wrong_password")
	return model.ErrInvalidCredentials
}

func (s *accountService) loginFailed(reason string) {
	if s.metrics != nil {
		s.metrics.LoginFailures.WithLabelValues(reason).Inc()
	}
}

// RecoverPassword mails a password reset link.
func (s *accountService) RecoverPassword(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.IssuePurposeToken(user, auth.PurposePasswordReset)
	if err != nil {
		return err
	}

	link := s.frontendURL + "/resetPassword?token=" + url.QueryEscape(token)
	msg, err := mail.PasswordResetMessage(user.FullName(), user.Email, link)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return model.NewDomainError(model.ErrCodeMailFailed, fmt.Sprintf("could not send the recovery email: %v", err))
	}
	return nil
}

// ResetPassword sets a new password with a reset token. The security stamp
// is rotated so the token cannot be used again.
func (s *accountService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	if req.Password != req.ConfirmPassword {
		return model.ErrPasswordMismatch
	}

	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	if err := s.tokens.VerifyPurposeToken(normalizeToken(req.Token), user, auth.PurposePasswordReset); err != nil {
		return model.ErrInvalidToken
	}

	return s.setPassword(ctx, user, req.Password)
}

// ChangePassword replaces the password after checking the current one.
func (s *accountService) ChangePassword(ctx context.Context, email string, req *model.ChangePasswordRequest) error {
	if req.NewPassword != req.Confirm {
		return model.ErrPasswordMismatch
	}

	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(user.PasswordHash, req.CurrentPassword) {
		return errWrongPassword
	}

	return s.setPassword(ctx, user, req.NewPassword)
}

func (s *accountService) setPassword(ctx context.Context, user *model.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, uuid.New()); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("password changed")
	return nil
}

// Current returns the caller's account.
func (s *accountService) Current(ctx context.Context, email string) (*model.User, error) {
	return s.userByEmail(ctx, email)
}

// UpdateProfile stores the profile, swapping the photo when a new one is
// sent, and returns a token carrying the refreshed claims.
func (s *accountService) UpdateProfile(ctx context.Context, email string, req *model.UserUpdateRequest) (*model.Token, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	oldPhoto := user.Photo
	var uploaded []string
	if req.Photo != "" && req.Photo != oldPhoto {
		urls, newUploads, err := s.photos.upload(ctx, []string{req.Photo})
		if err != nil {
			return nil, err
		}
		user.Photo, uploaded = urls[0], newUploads
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Document = req.Document
	user.PhoneNumber = req.PhoneNumber
	user.Address = req.Address
	user.CityID = req.CityID

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		s.photos.discard(ctx, uploaded)
		return nil, err
	}
	if len(uploaded) > 0 && oldPhoto != "" {
		s.photos.discard(ctx, []string{oldPhoto})
	}

	return s.tokens.IssueAccessToken(user)
}

// List retrieves one page of users filtered by first or last name.
func (s *accountService) List(ctx context.Context, p model.Pagination) ([]model.User, error) {
	users, err := s.users.List(ctx, p.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// TotalPages counts the pages of the filtered user list.
func (s *accountService) TotalPages(ctx context.Context, p model.Pagination) (int, error) {
	p = p.Normalize()
	count, err := s.users.Count(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return p.TotalPages(count), nil
}

func (s *accountService) userByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errUserDoesntExist
	}
	return user, nil
}

func (s *accountService) sendConfirmation(ctx context.Context, user *model.User) error {
	token, err := s.tokens.IssuePurposeToken(user, auth.PurposeEmailConfirmation)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/accounts/ConfirmEmail?userId=%s&token=%s",
		s.frontendURL, user.ID, url.QueryEscape(token))
	msg, err := mail.ConfirmationMessage(user.FullName(), user.Email, link)
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send confirmation email")
		return model.NewDomainError(model.ErrCodeMailFailed, fmt.Sprintf("could not send the confirmation email: %v", err))
	}
	return nil
}

// normalizeToken undoes the '+' to ' ' conversion some clients apply to
// query strings.
func normalizeToken(token string) string {
	return strings.ReplaceAll(token, " ", "+")
}
