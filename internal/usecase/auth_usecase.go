package usecase

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"lojaia/internal/domain/model"
	repo "lojaia/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// アクセストークンの発行だけを約束する。署名方式はmain側の実装が持つ。
type TokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

type AuthUsecase struct {
	users      repo.UserRepository
	issuer     TokenIssuer
	bcryptCost int
}

// DI
func NewAuthUsecase(users repo.UserRepository, issuer TokenIssuer) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		issuer:     issuer,
		bcryptCost: 12,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

type RegisterOutput struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// Registerはemailをキーに新規ユーザーを作る。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (RegisterOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if _, err := mail.ParseAddress(email); err != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Password) < 6 {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "password too short")
	}

	//email重複チェック
	existing, err := u.users.FindByEmail(ctx, email)
	if err != nil && err != repo.ErrNotFound {
		return RegisterOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusBadRequest, "email already registered")
	}

	//ハッシュを保存（平文は保存しない）
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.bcryptCost)
	if err != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := time.Now()
	user := &model.User{
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     strings.TrimSpace(in.FullName),
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return RegisterOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return RegisterOutput{UserID: user.ID, Email: user.Email}, nil
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Loginはemail+passwordを検証してアクセストークンを返す。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err == repo.ErrNotFound {
		//存在の有無は応答から区別できないようにする
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !user.IsActive {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, expiresAt, err := u.issuer.Issue(user.ID, user.Role, time.Now())
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return LoginOutput{AccessToken: token, ExpiresAt: expiresAt}, nil
}
