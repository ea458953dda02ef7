package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/chefgo/internal/model"
	"github.com/hitoshi/chefgo/internal/repository"
	"github.com/hitoshi/chefgo/internal/security"
)

type mockUserCreator struct {
	createFn func(ctx context.Context, user *model.User) error
	created  []*model.User
}

func (m *mockUserCreator) CreateWithProfile(ctx context.Context, user *model.User) error {
	m.created = append(m.created, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func TestRegisterCustomer_Success(t *testing.T) {
	users := &mockUserCreator{}
	r := NewRegistrar(users, nil)

	identity, err := r.RegisterCustomer(context.Background(), " New@Example.com ", "s3cret-pass", "<b>Malee</b>  S.")
	if err != nil {
		t.Fatalf("RegisterCustomer: %v", err)
	}

	if len(users.created) != 1 {
		t.Fatalf("created = %d users, want 1", len(users.created))
	}
	u := users.created[0]
	if u.Email != "new@example.com" {
		t.Errorf("Email = %q, want normalized", u.Email)
	}
	if u.DisplayName != "Malee S." {
		t.Errorf("DisplayName = %q, want sanitized %q", u.DisplayName, "Malee S.")
	}
	if u.Role != model.RoleCustomer || u.Status != model.StatusActive {
		t.Errorf("Role/Status = %s/%s, want CUSTOMER/ACTIVE", u.Role, u.Status)
	}
	if u.Profile == nil || u.Profile.Kind() != model.ProfileKindCustomer || u.Profile.ProfileID() == "" {
		t.Errorf("Profile = %#v, want customer profile with id", u.Profile)
	}
	if !security.VerifySecret("s3cret-pass", u.PasswordHash) {
		t.Error("stored hash does not verify the password")
	}
	if identity.ID != u.ID || identity.Email != u.Email {
		t.Errorf("identity = %+v, want matching created user", identity)
	}
}

func TestRegisterCustomer_InvalidInput(t *testing.T) {
	tests := []struct {
		name, email, password, displayName string
	}{
		{name: "メールアドレス不正", email: "not-an-email", password: "longenough", displayName: "A"},
		{name: "パスワードが短い", email: "a@example.com", password: "short", displayName: "A"},
		{name: "表示名が空", email: "a@example.com", password: "longenough", displayName: "   "},
		{name: "表示名がタグのみ", email: "a@example.com", password: "longenough", displayName: "<script>x</script>"},
		{name: "パスワードが72バイト超", email: "a@example.com", password: strings.Repeat("a", 73), displayName: "A"},
		{name: "表示名が長すぎる", email: "a@example.com", password: "longenough", displayName: strings.Repeat("ก", MaxDisplayNameRune+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mockUserCreator{}
			_, err := NewRegistrar(users, nil).RegisterCustomer(context.Background(), tt.email, tt.password, tt.displayName)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
			if len(users.created) != 0 {
				t.Error("no user may be created for invalid input")
			}
		})
	}
}

func TestRegisterCustomer_EmailTaken(t *testing.T) {
	users := &mockUserCreator{createFn: func(ctx context.Context, user *model.User) error {
		return repository.ErrEmailExists
	}}

	_, err := NewRegistrar(users, nil).RegisterCustomer(context.Background(), "dup@example.com", "longenough", "Dup")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterCustomer_StoreError_Wrapped(t *testing.T) {
	cause := errors.New("disk full")
	users := &mockUserCreator{createFn: func(ctx context.Context, user *model.User) error { return cause }}

	_, err := NewRegistrar(users, nil).RegisterCustomer(context.Background(), "a@example.com", "longenough", "A")
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want wrapping %v", err, cause)
	}
	if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrInvalidInput) {
		t.Error("store failure must not be classified as an input error")
	}
}

func TestRegisterCustomer_LongPassword_CleanMessage(t *testing.T) {
	users := &mockUserCreator{}
	// マルチバイト文字は25文字でも75バイトになる
	_, err := NewRegistrar(users, nil).RegisterCustomer(context.Background(), "a@example.com", strings.Repeat("ก", 25), "A")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if got := err.Error(); got != "invalid input: password must be at most 72 bytes" {
		t.Errorf("err = %q, want a message without library text", got)
	}
	if strings.Contains(err.Error(), "bcrypt") {
		t.Errorf("err = %q must not leak bcrypt details", err.Error())
	}
}

func TestRegisterCustomer_Max72BytePassword_Accepted(t *testing.T) {
	users := &mockUserCreator{}
	if _, err := NewRegistrar(users, nil).RegisterCustomer(context.Background(), "a@example.com", strings.Repeat("a", 72), "A"); err != nil {
		t.Fatalf("72-byte password should be accepted: %v", err)
	}
}
