package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/chefgo/internal/model"
	"github.com/hitoshi/chefgo/internal/repository"
	"github.com/hitoshi/chefgo/internal/security"
)

// 会員登録の入力制約。
const (
	MinPasswordLength  = 8
	MaxDisplayNameRune = 100
)

// ErrEmailTaken は登録済みのメールアドレスで会員登録しようとしたことを表す。
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidInput は会員登録の入力が制約を満たさないことを表す。
var ErrInvalidInput = errors.New("invalid input")

// UserCreator はユーザー作成に必要な操作。repository.UserRepositoryの部分集合。
type UserCreator interface {
	CreateWithProfile(ctx context.Context, user *model.User) error
}

// Registrar は注文者アカウントの会員登録を行う。
type Registrar struct {
	users     UserCreator
	sanitizer *security.NameSanitizer
	now       func() time.Time
}

// NewRegistrar はRegistrarを生成する。
func NewRegistrar(users UserCreator, sanitizer *security.NameSanitizer) *Registrar {
	if sanitizer == nil {
		sanitizer = security.NewNameSanitizer()
	}
	return &Registrar{users: users, sanitizer: sanitizer, now: time.Now}
}

// RegisterCustomer は注文者アカウントとプロフィールを作成し、Identityを返す。
// 作成されたアカウントはACTIVEで、すぐにログインできる。
func (r *Registrar) RegisterCustomer(ctx context.Context, email, password, displayName string) (*model.Identity, error) {
	email = NormalizeIdentifier(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: email address is malformed", ErrInvalidInput)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > security.MaxSecretBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, security.MaxSecretBytes)
	}

	name := r.sanitizer.Sanitize(displayName)
	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameRune {
		return nil, fmt.Errorf("%w: display name must be at most %d characters", ErrInvalidInput, MaxDisplayNameRune)
	}

	hash, err := security.HashSecret(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := r.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
		Status:       model.StatusActive,
		Profile:      &model.CustomerProfile{ID: uuid.New().String()},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.users.CreateWithProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	slog.InfoContext(ctx, "customer registered",
		slog.String("user_id", user.ID),
	)
	return user.Identity(), nil
}
