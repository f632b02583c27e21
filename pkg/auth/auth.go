// Package auth signs staff in and manages staff accounts: registration,
// password changes, account freezing and TOTP two-factor authentication.
package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/config"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/store"
	"restaurant_backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

// IdentityProvider mirrors staff accounts into an external auth service
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	UpdatePassword(ctx context.Context, uid, password string) error
	SetDisabled(ctx context.Context, uid string, disabled bool) error
	DeleteUser(ctx context.Context, uid string) error
}

// Settings configures token signing and account naming
type Settings struct {
	JWTSecret   string
	TokenTTL    time.Duration
	EmailDomain string
	TOTPIssuer  string
}

// SettingsFromConfig reads the auth settings from the app config
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		JWTSecret:   cfg.JWTSecret,
		TokenTTL:    utils.ParseExpiry(cfg.JWTExpiresIn),
		EmailDomain: cfg.StaffEmailDomain,
		TOTPIssuer:  cfg.TOTPIssuer,
	}
}

// Session is the result of a successful sign-in
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Staff     models.Staff `json:"user"`
}

// RegisterRequest creates a staff account
type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Phone    string      `json:"phoneNumber" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
	Password string      `json:"password" binding:"required"`
}

// TwoFactorSetup is returned when a TOTP secret is generated
type TwoFactorSetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpAuthUrl"`
}

// Option configures a Service
type Option func(*Service)

// WithIdentityProvider mirrors accounts into an external auth service
func WithIdentityProvider(p IdentityProvider) Option {
	return func(s *Service) {
		s.identity = p
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service authenticates staff against the staff collection
type Service struct {
	staff    store.StaffMembers
	settings Settings
	identity IdentityProvider
	now      func() time.Time
}

// NewService creates a Service on top of the staff collection
func NewService(staff store.StaffMembers, settings Settings, opts ...Option) *Service {
	if settings.TokenTTL <= 0 {
		settings.TokenTTL = 7 * 24 * time.Hour
	}
	if settings.TOTPIssuer == "" {
		settings.TOTPIssuer = "Restaurant OMS"
	}
	s := &Service{staff: staff, settings: settings, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenTTL returns how long issued tokens stay valid
func (s *Service) TokenTTL() time.Duration {
	return s.settings.TokenTTL
}

// ValidRole reports whether r is a staff role
func ValidRole(r models.Role) bool {
	switch r {
	case models.RoleWaiter, models.RoleKitchen, models.RoleAdmin, models.RoleManager:
		return true
	}
	return false
}

// NormalizePhone strips formatting and returns the digits of phone
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StaffEmail derives the login email of a phone number
func (s *Service) StaffEmail(phone string) string {
	return NormalizePhone(phone) + "@" + s.settings.EmailDomain
}

func (s *Service) lookup(ctx context.Context, identifier string) (*models.Staff, error) {
	identifier = strings.TrimSpace(identifier)
	var (
		staff *models.Staff
		err   error
	)
	if strings.Contains(identifier, "@") {
		staff, err = s.staff.FindStaffByEmail(ctx, strings.ToLower(identifier))
	} else {
		staff, err = s.staff.FindStaffByPhone(ctx, NormalizePhone(identifier))
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Auth("Invalid staff credentials")
	}
	if err != nil {
		return nil, apperr.Persistence(err, "failed to load staff")
	}
	return staff, nil
}

// SignIn checks the credentials and, when enabled, the TOTP code. Frozen
// accounts are rejected before the password is checked.
func (s *Service) SignIn(ctx context.Context, identifier, password, code string) (*Session, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return nil, apperr.Validation("Phone number or email and password are required")
	}

	staff, err := s.lookup(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if staff.IsFrozen {
		log.Printf("🚫 Sign-in refused for frozen staff %s", staff.ID)
		return nil, apperr.Auth("Account is frozen. Contact an administrator.")
	}
	if utils.ComparePassword(staff.PasswordHash, password) != nil {
		return nil, apperr.Auth("Invalid staff credentials")
	}
	if staff.TwoFactorEnabled {
		if code == "" {
			return nil, apperr.Auth("Two-factor code required")
		}
		if staff.TwoFactorSecret == nil || !totp.Validate(code, *staff.TwoFactorSecret) {
			return nil, apperr.Auth("Invalid two-factor code")
		}
	}

	now := s.now()
	token, err := utils.GenerateToken(s.settings.JWTSecret, s.settings.TokenTTL, *staff, now)
	if err != nil {
		return nil, err
	}
	if err := s.staff.UpdateStaff(ctx, staff.ID, store.Fields{"lastLoginAt": now}); err != nil {
		log.Printf("⚠️ Failed to record login for %s: %v", staff.ID, err)
	} else {
		staff.LastLoginAt = &now
	}

	return &Session{Token: token, ExpiresAt: now.Add(s.settings.TokenTTL), Staff: *staff}, nil
}

// Authenticate resolves a token to its staff member. Frozen staff are refused
// even while their token is still valid.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.Staff, error) {
	claims, err := utils.VerifyToken(s.settings.JWTSecret, token)
	if err != nil {
		if utils.IsExpired(err) {
			return nil, apperr.Auth("Token expired.")
		}
		return nil, apperr.Auth("Invalid token.")
	}
	staff, err := s.GetStaff(ctx, claims.StaffID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, apperr.Auth("Invalid token. Staff not found.")
	}
	if err != nil {
		return nil, err
	}
	if staff.IsFrozen {
		return nil, apperr.Auth("Account is frozen. Contact an administrator.")
	}
	return staff, nil
}

// Register creates a staff account. The phone number must be unused.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.Staff, error) {
	name := strings.TrimSpace(req.Name)
	phone := NormalizePhone(req.Phone)
	if name == "" {
		return nil, apperr.Validation("Name is required")
	}
	if len(phone) < 7 || len(phone) > 15 {
		return nil, apperr.Validation("Invalid phone number")
	}
	if !ValidRole(req.Role) {
		return nil, apperr.Validation("Invalid role %q", req.Role)
	}
	if err := utils.CheckPasswordStrength(req.Password); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	if _, err := s.staff.FindStaffByPhone(ctx, phone); err == nil {
		return nil, apperr.Conflict("Phone number %s is already registered", phone)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Persistence(err, "failed to check phone number")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	staff := &models.Staff{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        s.StaffEmail(phone),
		PhoneNumber:  phone,
		Role:         req.Role,
		DateJoined:   s.now(),
		PasswordHash: hash,
	}

	if s.identity != nil {
		uid, err := s.identity.CreateUser(ctx, staff.Email, req.Password, name)
		if err != nil {
			return nil, apperr.Persistence(err, "failed to create auth account")
		}
		staff.AuthUID = &uid
	}

	if err := s.staff.CreateStaff(ctx, staff); err != nil {
		if staff.AuthUID != nil {
			if derr := s.identity.DeleteUser(ctx, *staff.AuthUID); derr != nil {
				log.Printf("⚠️ Failed to roll back auth account %s: %v", *staff.AuthUID, derr)
			}
		}
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("Phone number %s is already registered", phone)
		}
		return nil, apperr.Persistence(err, "failed to save staff")
	}

	log.Printf("✅ Staff %s registered as %s", staff.Email, staff.Role)
	return staff, nil
}

// GetStaff returns one staff member
func (s *Service) GetStaff(ctx context.Context, id string) (*models.Staff, error) {
	staff, err := s.staff.GetStaff(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Staff %s not found", id)
	}
	if err != nil {
		return nil, apperr.Persistence(err, "failed to load staff %s", id)
	}
	return staff, nil
}

// ListStaff returns every staff member
func (s *Service) ListStaff(ctx context.Context) ([]models.Staff, error) {
	staff, err := s.staff.ListStaff(ctx)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to list staff")
	}
	return staff, nil
}

// ChangePassword replaces the password of the signed-in staff member
func (s *Service) ChangePassword(ctx context.Context, staffID, current, next string) error {
	staff, err := s.GetStaff(ctx, staffID)
	if err != nil {
		return err
	}
	if utils.ComparePassword(staff.PasswordHash, current) != nil {
		return apperr.Auth("Current password is incorrect")
	}
	if err := utils.CheckPasswordStrength(next); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if current == next {
		return apperr.Validation("New password must differ from the current password")
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return err
	}
	if staff.AuthUID != nil && s.identity != nil {
		if err := s.identity.UpdatePassword(ctx, *staff.AuthUID, next); err != nil {
			return apperr.Persistence(err, "failed to update auth account")
		}
	}
	if err := s.staff.UpdateStaff(ctx, staffID, store.Fields{"passwordHash": hash}); err != nil {
		return apperr.Persistence(err, "failed to update password")
	}
	return nil
}

// SetFrozen freezes or unfreezes a staff account
func (s *Service) SetFrozen(ctx context.Context, staffID string, frozen bool) (*models.Staff, error) {
	staff, err := s.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if err := s.staff.UpdateStaff(ctx, staffID, store.Fields{"isFrozen": frozen}); err != nil {
		return nil, apperr.Persistence(err, "failed to update staff %s", staffID)
	}
	staff.IsFrozen = frozen

	if staff.AuthUID != nil && s.identity != nil {
		if err := s.identity.SetDisabled(ctx, *staff.AuthUID, frozen); err != nil {
			log.Printf("⚠️ Failed to mirror freeze for %s: %v", staffID, err)
		}
	}
	log.Printf("🔧 Staff %s frozen=%v", staffID, frozen)
	return staff, nil
}

// DeleteStaff removes a staff account. Admins cannot delete themselves.
func (s *Service) DeleteStaff(ctx context.Context, actorID, staffID string) error {
	if actorID == staffID {
		return apperr.Validation("You cannot delete your own account")
	}
	staff, err := s.GetStaff(ctx, staffID)
	if err != nil {
		return err
	}
	if err := s.staff.DeleteStaff(ctx, staffID); err != nil {
		return apperr.Persistence(err, "failed to delete staff %s", staffID)
	}
	if staff.AuthUID != nil && s.identity != nil {
		if err := s.identity.DeleteUser(ctx, *staff.AuthUID); err != nil {
			log.Printf("⚠️ Failed to delete auth account %s: %v", *staff.AuthUID, err)
		}
	}
	return nil
}

// Generate2FA stores a new TOTP secret for the staff member. It takes effect
// once confirmed with Enable2FA.
func (s *Service) Generate2FA(ctx context.Context, staffID string) (*TwoFactorSetup, error) {
	staff, err := s.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if staff.TwoFactorEnabled {
		return nil, apperr.Validation("2FA is already enabled")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.settings.TOTPIssuer,
		AccountName: staff.Email,
	})
	if err != nil {
		return nil, err
	}
	if err := s.staff.UpdateStaff(ctx, staffID, store.Fields{"twoFactorSecret": key.Secret()}); err != nil {
		return nil, apperr.Persistence(err, "failed to save 2FA secret")
	}
	return &TwoFactorSetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// Enable2FA turns on two-factor sign-in after verifying a code
func (s *Service) Enable2FA(ctx context.Context, staffID, code string) error {
	staff, err := s.GetStaff(ctx, staffID)
	if err != nil {
		return err
	}
	if staff.TwoFactorSecret == nil {
		return apperr.Validation("2FA setup not initiated")
	}
	if !totp.Validate(code, *staff.TwoFactorSecret) {
		return apperr.Validation("Invalid 2FA token")
	}
	if err := s.staff.UpdateStaff(ctx, staffID, store.Fields{"twoFactorEnabled": true}); err != nil {
		return apperr.Persistence(err, "failed to enable 2FA")
	}
	return nil
}

// Disable2FA turns off two-factor sign-in after verifying a code
func (s *Service) Disable2FA(ctx context.Context, staffID, code string) error {
	staff, err := s.GetStaff(ctx, staffID)
	if err != nil {
		return err
	}
	if !staff.TwoFactorEnabled || staff.TwoFactorSecret == nil {
		return apperr.Validation("2FA is not enabled")
	}
	if !totp.Validate(code, *staff.TwoFactorSecret) {
		return apperr.Validation("Invalid 2FA token")
	}
	err = s.staff.UpdateStaff(ctx, staffID, store.Fields{
		"twoFactorEnabled": false,
		"twoFactorSecret":  nil,
	})
	if err != nil {
		return apperr.Persistence(err, "failed to disable 2FA")
	}
	return nil
}
