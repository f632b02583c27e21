package services

import (
	"context"
	"fmt"

	"firebase.google.com/go/auth"
)

// FirebaseIdentity mirrors staff accounts into Firebase Authentication
type FirebaseIdentity struct {
	client *auth.Client
}

// NewFirebaseIdentity wraps a Firebase Auth client
func NewFirebaseIdentity(client *auth.Client) *FirebaseIdentity {
	return &FirebaseIdentity{client: client}
}

// CreateUser creates an email/password account and returns its UID
func (f *FirebaseIdentity) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)
	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create auth user: %w", err)
	}
	return user.UID, nil
}

// UpdatePassword replaces the account password
func (f *FirebaseIdentity) UpdatePassword(ctx context.Context, uid, password string) error {
	_, err := f.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Password(password))
	return err
}

// SetDisabled blocks or unblocks sign-in for the account
func (f *FirebaseIdentity) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	_, err := f.client.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).Disabled(disabled))
	return err
}

// DeleteUser removes the account
func (f *FirebaseIdentity) DeleteUser(ctx context.Context, uid string) error {
	return f.client.DeleteUser(ctx, uid)
}
