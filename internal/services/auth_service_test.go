package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/launchbase/launchbase-backend/internal/auth"
	"github.com/launchbase/launchbase-backend/internal/dto"
	"github.com/launchbase/launchbase-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *testDeps) {
	t.Helper()
	deps := &testDeps{db: setupDB(t), cfg: testConfig(), mailer: &recordingMailer{}}
	return NewAuthService(deps.db, deps.cfg, deps.mailer), deps
}

func TestRegister_CreatesUserAndVerificationToken(t *testing.T) {
	svc, deps := newAuthService(t)

	resp, err := svc.Register(&dto.RegisterRequest{
		Email:    "new@example.com",
		Password: "ValidPass1",
		Name:     "Ada",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "verify")
	assert.False(t, resp.User.IsVerified)

	var user models.User
	require.NoError(t, deps.db.Where("email = ?", "new@example.com").First(&user).Error)
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, "ValidPass1", user.HashedPassword)

	var token models.VerificationToken
	require.NoError(t, deps.db.Where("user_id = ?", user.ID).First(&token).Error)
	assert.Len(t, token.Token, 64)
	assert.True(t, token.ExpiresAt.After(time.Now().Add(23*time.Hour)))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, deps := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "dup@example.com", Password: "ValidPass1"})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{Email: "dup@example.com", Password: "OtherPass1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	var count int64
	require.NoError(t, deps.db.Model(&models.User{}).Where("email = ?", "dup@example.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "", Password: ""})
	assert.True(t, IsValidationError(err))

	_, err = svc.Register(&dto.RegisterRequest{Email: "not-an-email", Password: "ValidPass1"})
	assert.True(t, IsValidationError(err))

	_, err = svc.Register(&dto.RegisterRequest{Email: "weak@example.com", Password: "alllowercase1"})
	require.True(t, IsValidationError(err))
	assert.Equal(t, "Password must contain at least one uppercase letter", err.Error())
}

func TestLogin_RequiresVerifiedEmail(t *testing.T) {
	svc, deps := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "login@example.com", Password: "ValidPass1"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Email: "login@example.com", Password: "ValidPass1"})
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	var token models.VerificationToken
	require.NoError(t, deps.db.First(&token).Error)
	_, err = svc.VerifyEmail(token.Token)
	require.NoError(t, err)

	resp, err := svc.Login(&dto.LoginRequest{Email: "login@example.com", Password: "ValidPass1"})
	require.NoError(t, err)

	claims, err := auth.VerifyToken(resp.Token, deps.cfg.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "login@example.com", claims.Email)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, deps := newAuthService(t)
	createUser(t, deps.db, "known@example.com", true)

	_, err := svc.Login(&dto.LoginRequest{Email: "known@example.com", Password: "WrongPass1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&dto.LoginRequest{Email: "unknown@example.com", Password: "ValidPass1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyEmail_ConsumesToken(t *testing.T) {
	svc, deps := newAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{Email: "verify@example.com", Password: "ValidPass1"})
	require.NoError(t, err)

	var token models.VerificationToken
	require.NoError(t, deps.db.First(&token).Error)

	msg, err := svc.VerifyEmail(token.Token)
	require.NoError(t, err)
	assert.Equal(t, "Email verified successfully", msg)

	// Token is single-use.
	_, err = svc.VerifyEmail(token.Token)
	assert.ErrorIs(t, err, ErrInvalidVerifyToken)
}

func TestVerifyEmail_AlreadyVerified(t *testing.T) {
	svc, deps := newAuthService(t)
	user := createUser(t, deps.db, "done@example.com", true)

	record := models.VerificationToken{
		ID:        uuid.New(),
		Token:     "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, deps.db.Create(&record).Error)

	msg, err := svc.VerifyEmail(record.Token)
	require.NoError(t, err)
	assert.Equal(t, "Email already verified", msg)
}

func TestVerifyEmail_ExpiredOrInvalid(t *testing.T) {
	svc, deps := newAuthService(t)
	user := createUser(t, deps.db, "late@example.com", false)

	record := models.VerificationToken{
		ID:        uuid.New(),
		Token:     "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, deps.db.Create(&record).Error)

	_, err := svc.VerifyEmail(record.Token)
	assert.ErrorIs(t, err, ErrVerifyTokenExpired)

	_, err = svc.VerifyEmail("nonexistent")
	assert.ErrorIs(t, err, ErrInvalidVerifyToken)

	_, err = svc.VerifyEmail("")
	assert.True(t, IsValidationError(err))
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	svc, deps := newAuthService(t)

	require.NoError(t, svc.RequestPasswordReset("nobody@example.com"))

	var count int64
	require.NoError(t, deps.db.Model(&models.PasswordResetToken{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestResetPassword_Flow(t *testing.T) {
	svc, deps := newAuthService(t)
	user := createUser(t, deps.db, "reset@example.com", true)

	require.NoError(t, svc.RequestPasswordReset(user.Email))

	var record models.PasswordResetToken
	require.NoError(t, deps.db.Where("user_id = ?", user.ID).First(&record).Error)
	assert.Len(t, record.Token, 64)

	require.NoError(t, svc.ResetPassword(record.Token, "NewerPass1"))

	_, err := svc.Login(&dto.LoginRequest{Email: user.Email, Password: "ValidPass1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(&dto.LoginRequest{Email: user.Email, Password: "NewerPass1"})
	assert.NoError(t, err)

	// Token is kept but marked used; replays fail.
	require.NoError(t, deps.db.First(&record, "id = ?", record.ID).Error)
	assert.True(t, record.Used)
	assert.ErrorIs(t, svc.ResetPassword(record.Token, "AnotherPass1"), ErrResetTokenUsed)
}

func TestResetPassword_ExpiredTokenLeavesPasswordUnchanged(t *testing.T) {
	svc, deps := newAuthService(t)
	user := createUser(t, deps.db, "expired@example.com", true)
	before := user.HashedPassword

	record := models.PasswordResetToken{
		ID:        uuid.New(),
		Token:     "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc",
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, deps.db.Create(&record).Error)

	assert.ErrorIs(t, svc.ResetPassword(record.Token, "NewerPass1"), ErrResetTokenExpired)

	var after models.User
	require.NoError(t, deps.db.First(&after, "id = ?", user.ID).Error)
	assert.Equal(t, before, after.HashedPassword)
}

func TestResetPassword_InvalidTokenAndWeakPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	assert.ErrorIs(t, svc.ResetPassword("missing", "NewerPass1"), ErrInvalidResetToken)
	assert.True(t, IsValidationError(svc.ResetPassword("missing", "weak")))
}

func TestProfile_GetAndUpdate(t *testing.T) {
	svc, deps := newAuthService(t)
	user := createUser(t, deps.db, "profile@example.com", true)

	got, err := svc.GetProfile(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	assert.Nil(t, got.Name)

	updated, err := svc.UpdateProfile(user.ID, "Grace")
	require.NoError(t, err)
	require.NotNil(t, updated.Name)
	assert.Equal(t, "Grace", *updated.Name)

	_, err = svc.UpdateProfile(user.ID, "")
	assert.True(t, IsValidationError(err))

	_, err = svc.GetProfile(uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
