package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "commune/pkg/domain"
)

func TestRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "commune")
	member := id.MemberID(uuid.New())

	token, err := svc.GenerateMemberToken(member, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, member.String(), claims.MemberID)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewService("test-signing-key", "commune")

	token, err := svc.GenerateMemberToken(id.MemberID(uuid.New()), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestWrongKeyRejected(t *testing.T) {
	signer := NewService("key-one", "commune")
	verifier := NewService("key-two", "commune")

	token, err := signer.GenerateMemberToken(id.MemberID(uuid.New()), time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestGarbageRejected(t *testing.T) {
	svc := NewService("test-signing-key", "commune")
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
