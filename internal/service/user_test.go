package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clm-server/internal/pkg/crypto"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestRegisterJoinsOrganizationByDomain(t *testing.T) {
	db := newTestDB(t)
	org, _ := seedOrganization(t, db, "Acme", "acme.com")

	svc := NewUserService(db, testSecret, 24)

	user, err := svc.Register(RegisterInput{
		Email: "Alice@ACME.com", Password: "secret123", FirstName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@acme.com", user.Email)
	require.NotNil(t, user.OrganizationID)
	assert.Equal(t, org.ID, *user.OrganizationID)
}

func TestRegisterRejectsUnknownDomain(t *testing.T) {
	db := newTestDB(t)
	seedOrganization(t, db, "Acme", "acme.com")

	svc := NewUserService(db, testSecret, 24)

	_, err := svc.Register(RegisterInput{
		Email: "eve@other.com", Password: "secret123", FirstName: "Eve",
	})
	assert.ErrorIs(t, err, ErrDomainUnregistered)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	seedOrganization(t, db, "Acme", "acme.com")

	svc := NewUserService(db, testSecret, 24)

	_, err := svc.Register(RegisterInput{Email: "alice@acme.com", Password: "secret123", FirstName: "Alice"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Email: "alice@acme.com", Password: "other456", FirstName: "Alice"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	org, _ := seedOrganization(t, db, "Acme", "acme.com")
	seedUser(t, db, "bob@acme.com", &org.ID)

	svc := NewUserService(db, testSecret, 24)

	user, token, err := svc.Login("bob@acme.com", "secret123")
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)
	require.NotNil(t, user.Organization)
	assert.Equal(t, "Acme", user.Organization.Name)

	claims, err := crypto.ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, org.ID, claims.OrganizationID)
	assert.False(t, claims.IsMainAdmin)

	_, _, err = svc.Login("bob@acme.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@acme.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
