package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"chirp/db"
	"chirp/errs"
	"chirp/models"

	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

type UserService struct{}

func NewUserService() *UserService {
	return &UserService{}
}

var userService = NewUserService()

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register creates the account and sends the verification email
// best-effort: a failed send is logged and the account stays usable,
// verification can be retried later.
func (us *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if !usernameRe.MatchString(in.Username) {
		return nil, "", errs.Validation("username must be 3-20 letters, numbers or underscores")
	}
	if !strings.Contains(in.Email, "@") {
		return nil, "", errs.Validation("please provide a valid email")
	}
	if utf8.RuneCountInString(in.Password) < 8 {
		return nil, "", errs.Validation("password must be at least 8 characters long")
	}
	if in.Name == "" || utf8.RuneCountInString(in.Name) > 50 {
		return nil, "", errs.Validation("please provide a name up to 50 characters")
	}

	var cnt int64
	if err := db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("email = ?", in.Email).Count(&cnt).Error; err != nil {
		return nil, "", errs.Internal("failed to check email", err)
	}
	if cnt > 0 {
		return nil, "", errs.Conflict("email already in use")
	}
	if err := db.GetReadOnlyDB(ctx).Model(&models.User{}).Where("username = ?", in.Username).Count(&cnt).Error; err != nil {
		return nil, "", errs.Internal("failed to check username", err)
	}
	if cnt > 0 {
		return nil, "", errs.Conflict("username already taken")
	}

	passwordHash, err := hashPassword(in.Password)
	if err != nil {
		return nil, "", errs.Internal("failed to hash password", err)
	}
	verifyToken, err := randomToken(16)
	if err != nil {
		return nil, "", errs.Internal("failed to generate verification token", err)
	}

	user := &models.User{
		Username:         in.Username,
		Email:            in.Email,
		Password:         passwordHash,
		Name:             in.Name,
		EmailVerifyToken: verifyToken,
		LastActive:       time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(user).Error; err != nil {
		return nil, "", errs.Internal("failed to create user", err)
	}

	if Mail != nil {
		go func(email, username, token string) {
			if err := Mail.SendVerificationEmail(email, username, token); err != nil {
				log.Printf("verification email to %s failed: %v", email, err)
			}
		}(user.Email, user.Username, verifyToken)
	}

	token, err := SignToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks credentials and issues a bearer token. Missing user and
// bad password are indistinguishable to the caller.
func (us *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", errs.Validation("please provide an email and password")
	}

	var user models.User
	err := db.GetReadOnlyDB(ctx).Where("email = ?", email).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, "", errs.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return nil, "", errs.Internal("failed to look up user", err)
	}
	if !verifyPassword(user.Password, password) {
		return nil, "", errs.Unauthenticated("invalid credentials")
	}

	if err := db.GetWriteDB(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Update("last_active", time.Now()).Error; err != nil {
		log.Printf("failed to update last_active for user %d: %v", user.ID, err)
	}

	token, err := SignToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (us *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := db.GetReadOnlyDB(ctx).First(&user, userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.NotFound("user not found")
	}
	if err != nil {
		return nil, errs.Internal("failed to get user", err)
	}
	return &user, nil
}

type UpdateDetailsInput struct {
	Name   *string `json:"name"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

func (us *UserService) UpdateDetails(ctx context.Context, userID int64, in UpdateDetailsInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		if *in.Name == "" || utf8.RuneCountInString(*in.Name) > 50 {
			return nil, errs.Validation("please provide a name up to 50 characters")
		}
		updates["name"] = *in.Name
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > 160 {
			return nil, errs.Validation("bio cannot exceed 160 characters")
		}
		updates["bio"] = *in.Bio
	}
	if in.Avatar != nil {
		updates["avatar"] = *in.Avatar
	}
	if len(updates) == 0 {
		return nil, errs.Validation("nothing to update")
	}

	res := db.GetWriteDB(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return nil, errs.Internal("failed to update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errs.NotFound("user not found")
	}
	return us.Get(ctx, userID)
}

// VerifyEmail flips the verification flag for the token's owner.
func (us *UserService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return errs.Validation("verification token is required")
	}
	res := db.GetWriteDB(ctx).Model(&models.User{}).
		Where("email_verify_token = ?", token).
		Updates(map[string]interface{}{"is_verified": true, "email_verify_token": ""})
	if res.Error != nil {
		return errs.Internal("failed to verify email", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("invalid verification token")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func verifyPassword(stored, password string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(hash) == parts[1]
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
