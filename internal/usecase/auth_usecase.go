package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type RegisterInput struct {
	Username string     `json:"username" validate:"required,min=3,max=32,username"`
	Password string     `json:"password" validate:"required,min=6,max=72"`
	Role     model.Role `json:"role" validate:"required,oneof=BUYER SELLER"`
	Nickname string     `json:"nickname" validate:"max=64"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Nickname string `json:"nickname" validate:"max=64"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Phone    string `json:"phone" validate:"max=30"`
	Avatar   string `json:"avatar" validate:"max=512"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

// ログイン結果。Tokenはcookieにだけ載せる
type LoginResult struct {
	User      UserView
	Token     string
	ExpiresAt time.Time
}

type AuthUsecase struct {
	users    repo.UserRepository
	hasher   PasswordHasher
	sessions SessionIssuer
}

func NewAuthUsecase(users repo.UserRepository, hasher PasswordHasher, sessions SessionIssuer) *AuthUsecase {
	return &AuthUsecase{users: users, hasher: hasher, sessions: sessions}
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserView, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validate(in); err != nil {
		return UserView{}, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return UserView{}, Internal("auth.register.hash", err)
	}

	nickname := strings.TrimSpace(in.Nickname)
	if nickname == "" {
		nickname = in.Username
	}
	user := &model.User{
		Username:     in.Username,
		PasswordHash: pwHash,
		Role:         in.Role,
		Nickname:     nickname,
	}
	err = u.users.Create(ctx, user)
	if errors.Is(err, repo.ErrDuplicate) {
		return UserView{}, Conflict(CodeDuplicateUsername, "username is already taken")
	}
	if err != nil {
		return UserView{}, Internal("auth.register", err)
	}
	return toUserView(*user), nil
}

// ユーザー名とパスワードのどちらが違うかは返さない
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := validate(in); err != nil {
		return LoginResult{}, err
	}

	user, err := u.users.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, repo.ErrNotFound) {
		return LoginResult{}, invalidCredentials()
	}
	if err != nil {
		return LoginResult{}, Internal("auth.login.find", err)
	}

	ok, err := u.hasher.Verify(user.PasswordHash, in.Password)
	if err != nil {
		return LoginResult{}, Internal("auth.login.verify", err)
	}
	if !ok {
		return LoginResult{}, invalidCredentials()
	}

	token, exp, err := u.sessions.Issue(auth.Principal{UserID: user.ID, Role: user.Role})
	if err != nil {
		return LoginResult{}, Internal("auth.login.session", err)
	}
	return LoginResult{User: toUserView(user), Token: token, ExpiresAt: exp}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, p auth.Principal) (UserView, error) {
	user, err := u.current(ctx, p)
	if err != nil {
		return UserView{}, err
	}
	return toUserView(user), nil
}

func (u *AuthUsecase) UpdateProfile(ctx context.Context, p auth.Principal, in ProfileInput) (UserView, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return UserView{}, err
	}
	user, err := u.current(ctx, p)
	if err != nil {
		return UserView{}, err
	}

	user.Nickname = strings.TrimSpace(in.Nickname)
	if user.Nickname == "" {
		user.Nickname = user.Username
	}
	user.Email = in.Email
	user.Phone = strings.TrimSpace(in.Phone)
	user.Avatar = strings.TrimSpace(in.Avatar)
	if err := u.users.UpdateProfile(ctx, user); err != nil {
		return UserView{}, Internal("auth.update_profile", err)
	}
	return toUserView(user), nil
}

func (u *AuthUsecase) ChangePassword(ctx context.Context, p auth.Principal, in ChangePasswordInput) error {
	if err := validate(in); err != nil {
		return err
	}
	user, err := u.current(ctx, p)
	if err != nil {
		return err
	}

	ok, err := u.hasher.Verify(user.PasswordHash, in.OldPassword)
	if err != nil {
		return Internal("auth.change_password.verify", err)
	}
	if !ok {
		return Invalid("old password is incorrect")
	}

	pwHash, err := u.hasher.Hash(in.NewPassword)
	if err != nil {
		return Internal("auth.change_password.hash", err)
	}
	if err := u.users.UpdatePassword(ctx, user.ID, pwHash); err != nil {
		return Internal("auth.change_password", err)
	}
	return nil
}

// セッションはあるがユーザーが消えている場合も未ログイン扱い
func (u *AuthUsecase) current(ctx context.Context, p auth.Principal) (model.User, error) {
	if !p.Authenticated() {
		return model.User{}, Unauthenticated()
	}
	user, err := u.users.FindByID(ctx, p.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, Unauthenticated()
	}
	if err != nil {
		return model.User{}, Internal("auth.current", err)
	}
	return user, nil
}

func invalidCredentials() error {
	return NewAppError(http.StatusUnauthorized, CodeInvalidCredentials, "invalid username or password")
}
