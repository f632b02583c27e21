package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/store"
	"restaurant_backend/pkg/utils"

	"github.com/pquerna/otp/totp"
)

type fakeIdentity struct {
	created  []string
	deleted  []string
	disabled map[string]bool
	failNext error
}

func (f *fakeIdentity) CreateUser(_ context.Context, email, _, _ string) (string, error) {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return "", err
	}
	f.created = append(f.created, email)
	return "uid-" + email, nil
}

func (f *fakeIdentity) UpdatePassword(context.Context, string, string) error { return nil }

func (f *fakeIdentity) SetDisabled(_ context.Context, uid string, disabled bool) error {
	if f.disabled == nil {
		f.disabled = make(map[string]bool)
	}
	f.disabled[uid] = disabled
	return nil
}

func (f *fakeIdentity) DeleteUser(_ context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)
	return nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })
	settings := Settings{
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		EmailDomain: "staff.test",
	}
	return NewService(s, settings, opts...), s
}

func register(t *testing.T, svc *Service, phone string, role models.Role) *models.Staff {
	t.Helper()
	staff, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Asha",
		Phone:    phone,
		Role:     role,
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return staff
}

func TestRegister(t *testing.T) {
	identity := &fakeIdentity{}
	svc, _ := newTestService(t, WithIdentityProvider(identity))

	staff := register(t, svc, "+91 98765-43210", models.RoleWaiter)
	if staff.Email != "919876543210@staff.test" {
		t.Errorf("email = %q, want derived from phone digits", staff.Email)
	}
	if staff.PhoneNumber != "919876543210" {
		t.Errorf("phone = %q, want digits only", staff.PhoneNumber)
	}
	if staff.AuthUID == nil || *staff.AuthUID != "uid-919876543210@staff.test" {
		t.Errorf("authUid = %v, want mirrored uid", staff.AuthUID)
	}
	if staff.PasswordHash == "secret123" || utils.ComparePassword(staff.PasswordHash, "secret123") != nil {
		t.Error("password should be stored as a bcrypt hash")
	}

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Other", Phone: "919876543210", Role: models.RoleKitchen, Password: "another1",
	})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Errorf("duplicate phone error = %v, want conflict", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{name: "missingName", req: RegisterRequest{Phone: "9876543210", Role: models.RoleWaiter, Password: "secret123"}},
		{name: "shortPhone", req: RegisterRequest{Name: "A", Phone: "123", Role: models.RoleWaiter, Password: "secret123"}},
		{name: "badRole", req: RegisterRequest{Name: "A", Phone: "9876543210", Role: "chef", Password: "secret123"}},
		{name: "weakPassword", req: RegisterRequest{Name: "A", Phone: "9876543210", Role: models.RoleWaiter, Password: "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("Register() error = %v, want validation", err)
			}
		})
	}
}

func TestRegisterRollsBackIdentityOnStoreFailure(t *testing.T) {
	identity := &fakeIdentity{}
	svc, s := newTestService(t, WithIdentityProvider(identity))

	s.FailNext(models.CollectionStaff, errors.New("disk full"))
	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Asha", Phone: "9876543210", Role: models.RoleWaiter, Password: "secret123",
	})
	if !apperr.IsKind(err, apperr.KindPersistence) {
		t.Fatalf("error = %v, want persistence", err)
	}
	if len(identity.deleted) != 1 {
		t.Errorf("identity deletes = %v, want the created account removed", identity.deleted)
	}
}

func TestSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	staff := register(t, svc, "9876543210", models.RoleWaiter)
	ctx := context.Background()

	tests := []struct {
		name       string
		identifier string
		password   string
		wantKind   apperr.Kind
	}{
		{name: "byPhone", identifier: "98765 43210", password: "secret123"},
		{name: "byEmail", identifier: "9876543210@STAFF.TEST", password: "secret123"},
		{name: "wrongPassword", identifier: "9876543210", password: "nope", wantKind: apperr.KindAuth},
		{name: "unknownPhone", identifier: "1111111111", password: "secret123", wantKind: apperr.KindAuth},
		{name: "missingFields", identifier: "", password: "", wantKind: apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.SignIn(ctx, tt.identifier, tt.password, "")
			if tt.wantKind != "" {
				if !apperr.IsKind(err, tt.wantKind) {
					t.Errorf("SignIn() error = %v, want %s", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("SignIn() error = %v", err)
			}
			if session.Staff.ID != staff.ID || session.Token == "" {
				t.Errorf("SignIn() = %+v", session)
			}
			got, err := svc.Authenticate(ctx, session.Token)
			if err != nil || got.ID != staff.ID {
				t.Errorf("Authenticate() = %v, %v", got, err)
			}
		})
	}
}

func TestFrozenStaffRejectedRegardlessOfPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := register(t, svc, "9876543210", models.RoleKitchen)

	session, err := svc.SignIn(ctx, "9876543210", "secret123", "")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if _, err := svc.SetFrozen(ctx, staff.ID, true); err != nil {
		t.Fatalf("SetFrozen() error = %v", err)
	}

	for _, password := range []string{"secret123", "wrong"} {
		_, err := svc.SignIn(ctx, "9876543210", password, "")
		if !apperr.IsKind(err, apperr.KindAuth) || apperr.Message(err) != "Account is frozen. Contact an administrator." {
			t.Errorf("SignIn(%q) error = %v, want frozen auth error", password, err)
		}
	}
	if _, err := svc.Authenticate(ctx, session.Token); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("Authenticate() with frozen staff error = %v, want auth", err)
	}

	if _, err := svc.SetFrozen(ctx, staff.ID, false); err != nil {
		t.Fatalf("unfreeze error = %v", err)
	}
	if _, err := svc.SignIn(ctx, "9876543210", "secret123", ""); err != nil {
		t.Errorf("SignIn() after unfreeze error = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := register(t, svc, "9876543210", models.RoleWaiter)

	if err := svc.ChangePassword(ctx, staff.ID, "wrong", "newsecret"); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("wrong current password error = %v, want auth", err)
	}
	if err := svc.ChangePassword(ctx, staff.ID, "secret123", "abc"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("weak password error = %v, want validation", err)
	}
	if err := svc.ChangePassword(ctx, staff.ID, "secret123", "newsecret"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := svc.SignIn(ctx, "9876543210", "newsecret", ""); err != nil {
		t.Errorf("SignIn() with new password error = %v", err)
	}
	if _, err := svc.SignIn(ctx, "9876543210", "secret123", ""); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("SignIn() with old password error = %v, want auth", err)
	}
}

func TestTwoFactor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := register(t, svc, "9876543210", models.RoleAdmin)

	setup, err := svc.Generate2FA(ctx, staff.ID)
	if err != nil {
		t.Fatalf("Generate2FA() error = %v", err)
	}
	if err := svc.Enable2FA(ctx, staff.ID, "000000"); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("Enable2FA() with bad code error = %v, want validation", err)
	}

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	if err := svc.Enable2FA(ctx, staff.ID, code); err != nil {
		t.Fatalf("Enable2FA() error = %v", err)
	}

	if _, err := svc.SignIn(ctx, "9876543210", "secret123", ""); !apperr.IsKind(err, apperr.KindAuth) {
		t.Errorf("SignIn() without code error = %v, want auth", err)
	}
	if _, err := svc.SignIn(ctx, "9876543210", "secret123", code); err != nil {
		t.Errorf("SignIn() with code error = %v", err)
	}

	if err := svc.Disable2FA(ctx, staff.ID, code); err != nil {
		t.Fatalf("Disable2FA() error = %v", err)
	}
	if _, err := svc.SignIn(ctx, "9876543210", "secret123", ""); err != nil {
		t.Errorf("SignIn() after disable error = %v", err)
	}
}

func TestDeleteStaff(t *testing.T) {
	identity := &fakeIdentity{}
	svc, _ := newTestService(t, WithIdentityProvider(identity))
	ctx := context.Background()
	admin := register(t, svc, "9000000001", models.RoleAdmin)
	waiter := register(t, svc, "9000000002", models.RoleWaiter)

	if err := svc.DeleteStaff(ctx, admin.ID, admin.ID); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("self delete error = %v, want validation", err)
	}
	if err := svc.DeleteStaff(ctx, admin.ID, waiter.ID); err != nil {
		t.Fatalf("DeleteStaff() error = %v", err)
	}
	if _, err := svc.GetStaff(ctx, waiter.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("GetStaff() after delete error = %v, want not found", err)
	}
	if len(identity.deleted) != 1 {
		t.Errorf("identity deletes = %v, want 1", identity.deleted)
	}
}
