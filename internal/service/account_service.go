package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"user-mgmt/internal/domain"
	"user-mgmt/internal/email"
	"user-mgmt/internal/repository"
)

// AccountService coordina registro, verificacion y gestion de cuentas.
type AccountService struct {
	logger        *zap.Logger
	users         repository.UserRepository
	profiles      repository.ProfileRepository
	tokens        *TokenService
	emailSender   email.Sender
	resendLimiter EmailRateLimiter
	baseURL       string
}

func NewAccountService(
	logger *zap.Logger,
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	tokens *TokenService,
	emailSender email.Sender,
	resendLimiter EmailRateLimiter,
	baseURL string,
) *AccountService {
	if resendLimiter == nil {
		resendLimiter = NewEmailRateLimiter(resendWindow, resendMax)
	}
	return &AccountService{
		logger:        logger,
		users:         users,
		profiles:      profiles,
		tokens:        tokens,
		emailSender:   emailSender,
		resendLimiter: resendLimiter,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidLink        = errors.New("verification link is invalid or has expired")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and contain letters and digits")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

const (
	resendWindow = 10 * time.Minute
	resendMax    = 3
)

type RegisterInput struct {
	Email           string
	Username        string
	FirstName       string
	LastName        string
	Password        string
	PasswordConfirm string
}

// Register crea la cuenta inactiva y sin verificar, su perfil vacio, y envia
// el correo de verificacion. Si el envio falla la cuenta recien creada se
// borra (accion compensatoria) y el registro se reporta como no completado.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if input.Password != input.PasswordConfirm {
		return domain.User{}, ErrPasswordMismatch
	}
	if err := validatePassword(input.Password); err != nil {
		return domain.User{}, err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:              uuid.NewString(),
		Email:           emailAddr,
		Username:        strings.TrimSpace(input.Username),
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		PasswordHash:    string(hashBytes),
		Role:            domain.RoleUser,
		IsActive:        false,
		IsEmailVerified: false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	if err := s.profiles.Create(ctx, emptyProfile(user.ID, now)); err != nil {
		_ = s.users.Delete(ctx, user.ID)
		return domain.User{}, err
	}

	token := s.tokens.Issue(user)
	if err := s.emailSender.SendVerification(ctx, user, s.verificationLink(user, token)); err != nil {
		s.logger.Warn("verification email failed, rolling back account",
			zap.Error(err), zap.String("email", emailAddr))
		// El borrado arrastra el perfil por el cascade de la FK.
		_ = s.users.Delete(ctx, user.ID)
		return domain.User{}, ErrEmailSendFailure
	}

	return user, nil
}

// Verify valida el par uid/token y activa la cuenta. Cualquier fallo (uid
// malformado, cuenta inexistente, token invalido o vencido) devuelve el mismo
// ErrInvalidLink para no permitir enumeracion de cuentas.
func (s *AccountService) Verify(ctx context.Context, uidEncoded, token string) (domain.User, error) {
	id, err := DecodeUID(uidEncoded)
	if err != nil {
		return domain.User{}, ErrInvalidLink
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidLink
		}
		return domain.User{}, err
	}
	if !s.tokens.Validate(user, token) {
		return domain.User{}, ErrInvalidLink
	}

	now := time.Now().UTC()
	if err := s.users.MarkVerified(ctx, user.ID, now); err != nil {
		return domain.User{}, err
	}
	user.IsActive = true
	user.IsEmailVerified = true
	user.UpdatedAt = now

	// El correo de bienvenida es best effort: un fallo no bloquea la
	// activacion, a diferencia del correo de registro.
	if err := s.emailSender.SendWelcome(ctx, user, s.baseURL+"/users/login/"); err != nil {
		s.logger.Warn("welcome email failed", zap.Error(err), zap.String("email", user.Email))
	}

	return user, nil
}

// ResendVerification reemite el token y reenvia el correo de verificacion
// para una cuenta autenticada aun sin verificar.
func (s *AccountService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}
	if s.resendLimiter != nil && !s.resendLimiter.Allow(user.Email) {
		return ErrRateLimited
	}

	token := s.tokens.Issue(user)
	if err := s.emailSender.SendVerification(ctx, user, s.verificationLink(user, token)); err != nil {
		s.logger.Warn("resend verification email failed",
			zap.Error(err), zap.String("email", user.Email))
		return ErrEmailSendFailure
	}
	return nil
}

// Authenticate valida credenciales de login. Una cuenta inactiva con password
// correcto recibe un error propio: en ese punto el caller ya probo conocer la
// credencial, asi que distinguirlo no filtra existencia de cuentas.
func (s *AccountService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.User{}, ErrAccountInactive
	}
	return user, nil
}

// ChangePassword reemplaza el hash tras validar el password actual. El cambio
// de hash tambien invalida cualquier token de verificacion o reset pendiente.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return domain.User{}, err
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	now := time.Now().UTC()
	if err := s.users.UpdatePassword(ctx, user.ID, string(hashBytes), now); err != nil {
		return domain.User{}, err
	}
	user.PasswordHash = string(hashBytes)
	user.UpdatedAt = now
	return user, nil
}

// RequestPasswordReset envia un link de reset cuando la cuenta existe. La
// respuesta al caller es identica exista o no la cuenta; los fallos de envio
// se registran y se tragan por la misma razon.
func (s *AccountService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return nil
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	token := s.tokens.Issue(user)
	link := fmt.Sprintf("%s/users/password-reset/confirm/%s/%s/", s.baseURL, EncodeUID(user.ID), token)
	if err := s.emailSender.SendPasswordReset(ctx, user, link); err != nil {
		s.logger.Warn("password reset email failed",
			zap.Error(err), zap.String("email", user.Email))
	}
	return nil
}

// ConfirmPasswordReset valida el par uid/token con el mismo embudo que la
// verificacion y guarda el nuevo hash, lo que consume el token.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, uidEncoded, token, newPassword string) error {
	id, err := DecodeUID(uidEncoded)
	if err != nil {
		return ErrInvalidLink
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidLink
		}
		return err
	}
	if !s.tokens.Validate(user, token) {
		return ErrInvalidLink
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hashBytes), time.Now().UTC())
}

// GetProfile devuelve usuario y perfil, creando el perfil si no existe aun.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (domain.User, domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.Profile{}, ErrUserNotFound
		}
		return domain.User{}, domain.Profile{}, err
	}
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.Profile{}, err
		}
		profile = emptyProfile(userID, time.Now().UTC())
		if err := s.profiles.Create(ctx, profile); err != nil {
			return domain.User{}, domain.Profile{}, err
		}
	}
	return user, profile, nil
}

type UpdateProfileInput struct {
	Email       string
	Username    string
	FirstName   string
	LastName    string
	Avatar      string
	Bio         string
	BirthDate   *time.Time
	PhoneNumber string
	Address     string
}

// UpdateProfile aplica ediciones a los campos de cuenta y de perfil.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (domain.User, domain.Profile, error) {
	user, profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	if emailAddr := normalizeEmail(input.Email); emailAddr != "" {
		user.Email = emailAddr
	}
	if v := strings.TrimSpace(input.Username); v != "" {
		user.Username = v
	}
	if v := strings.TrimSpace(input.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(input.LastName); v != "" {
		user.LastName = v
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	if v := strings.TrimSpace(input.Avatar); v != "" {
		profile.Avatar = v
	}
	profile.Bio = strings.TrimSpace(input.Bio)
	profile.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	profile.Address = strings.TrimSpace(input.Address)
	if input.BirthDate != nil {
		profile.BirthDate = input.BirthDate
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return domain.User{}, domain.Profile{}, err
	}

	return user, profile, nil
}

// EnsureAdmin crea una cuenta admin activa y verificada si no existe ninguna.
// Pensado para bootstrap inicial; es idempotente.
func (s *AccountService) EnsureAdmin(ctx context.Context, emailAddr, username, password string) (bool, error) {
	exists, err := s.users.RoleExists(ctx, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return false, ErrInvalidEmail
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	admin := domain.User{
		ID:              uuid.NewString(),
		Email:           emailAddr,
		Username:        username,
		PasswordHash:    string(hashBytes),
		Role:            domain.RoleAdmin,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return false, err
	}
	if err := s.profiles.Create(ctx, emptyProfile(admin.ID, now)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AccountService) verificationLink(user domain.User, token string) string {
	return fmt.Sprintf("%s/users/verify/%s/%s/", s.baseURL, EncodeUID(user.ID), token)
}

func emptyProfile(userID string, now time.Time) domain.Profile {
	return domain.Profile{
		ID:        uuid.NewString(),
		UserID:    userID,
		Avatar:    domain.DefaultAvatar,
		CreatedAt: now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
