package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/launchbase/launchbase-backend/internal/auth"
	"github.com/launchbase/launchbase-backend/internal/config"
	"github.com/launchbase/launchbase-backend/internal/dto"
	"github.com/launchbase/launchbase-backend/internal/email"
	"github.com/launchbase/launchbase-backend/internal/models"
	"gorm.io/gorm"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour
)

type AuthService struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer email.Mailer
}

func NewAuthService(db *gorm.DB, cfg *config.Config, mailer email.Mailer) *AuthService {
	return &AuthService{db: db, cfg: cfg, mailer: mailer}
}

func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, NewValidationError("Email and password are required")
	}
	if !auth.IsValidEmail(req.Email) {
		return nil, NewValidationError("Invalid email format")
	}
	if ok, msg := auth.ValidatePassword(req.Password); !ok {
		return nil, NewValidationError(msg)
	}

	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	digest, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:             uuid.New(),
		Email:          req.Email,
		HashedPassword: digest,
	}
	if req.Name != "" {
		user.Name = &req.Name
	}

	token, err := auth.RandomToken()
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		record := models.VerificationToken{
			ID:        uuid.New(),
			Token:     token,
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(verificationTokenTTL),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create verification token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	verificationURL := s.cfg.AppBaseURL + "/api/auth/verify?token=" + token
	subject, html := email.VerificationBody(verificationURL)
	email.SendAsync(s.mailer, user.Email, subject, html)

	return &dto.RegisterResponse{
		Message: "Registration successful. Please check your email to verify your account.",
		User:    toUserResponse(&user),
	}, nil
}

func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, NewValidationError("Email and password are required")
	}
	if !auth.IsValidEmail(req.Email) {
		return nil, NewValidationError("Invalid email format")
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if !auth.VerifyPassword(req.Password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	token, err := auth.IssueToken(auth.Claims{UserID: user.ID, Email: user.Email}, s.cfg.JWTSecret, s.cfg.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &dto.AuthResponse{Token: token, User: toUserResponse(&user)}, nil
}

// VerifyEmail consumes a verification token: the user is marked
// verified and the token deleted in one transaction.
func (s *AuthService) VerifyEmail(token string) (string, error) {
	if token == "" {
		return "", NewValidationError("Verification token is required")
	}

	var record models.VerificationToken
	if err := s.db.Preload("User").Where("token = ?", token).First(&record).Error; err != nil {
		return "", ErrInvalidVerifyToken
	}
	if time.Now().After(record.ExpiresAt) {
		return "", ErrVerifyTokenExpired
	}
	if record.User.IsVerified {
		return "Email already verified", nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", record.UserID).Update("is_verified", true).Error; err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to verify email: %w", err)
	}
	return "Email verified successfully", nil
}

// RequestPasswordReset creates a reset token and emails the link. A
// missing account is not an error; the caller must answer identically
// either way.
func (s *AuthService) RequestPasswordReset(emailAddr string) error {
	if emailAddr == "" {
		return NewValidationError("Email is required")
	}
	if !auth.IsValidEmail(emailAddr) {
		return NewValidationError("Invalid email format")
	}

	var user models.User
	if err := s.db.Where("email = ?", emailAddr).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token, err := auth.RandomToken()
	if err != nil {
		return err
	}
	record := models.PasswordResetToken{
		ID:        uuid.New(),
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(resetTokenTTL),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	resetURL := s.cfg.AppBaseURL + "/reset-password?token=" + token
	subject, html := email.PasswordResetBody(resetURL)
	email.SendAsync(s.mailer, user.Email, subject, html)
	return nil
}

// ResetPassword consumes a reset token: the digest update and the
// used-flag are committed together or not at all.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if token == "" || newPassword == "" {
		return NewValidationError("Token and new password are required")
	}
	if ok, msg := auth.ValidatePassword(newPassword); !ok {
		return NewValidationError(msg)
	}

	var record models.PasswordResetToken
	if err := s.db.Where("token = ?", token).First(&record).Error; err != nil {
		return ErrInvalidResetToken
	}
	if time.Now().After(record.ExpiresAt) {
		return ErrResetTokenExpired
	}
	if record.Used {
		return ErrResetTokenUsed
	}

	digest, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", record.UserID).Update("hashed_password", digest).Error; err != nil {
			return err
		}
		return tx.Model(&record).Update("used", true).Error
	})
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	slog.Info("password reset completed", "user_id", record.UserID.String())
	return nil
}

func (s *AuthService) GetProfile(userID uuid.UUID) (*dto.UserResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	resp := toUserResponse(&user)
	return &resp, nil
}

func (s *AuthService) UpdateProfile(userID uuid.UUID, name string) (*dto.UserResponse, error) {
	if name == "" {
		return nil, NewValidationError("Name is required")
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if err := s.db.Model(&user).Update("name", name).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	user.Name = &name

	resp := toUserResponse(&user)
	return &resp, nil
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
