package security

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftreport.com/shiftreport/model"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func testUser() *model.User {
	return &model.User{ID: uuid.New(), Username: "alice", Role: model.RoleSupervisor}
}

func TestNewTokenIssuerRejectsBadSecret(t *testing.T) {
	_, err := NewTokenIssuer("%%%", "shiftreport", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenIssuer(base64.StdEncoding.EncodeToString([]byte("short")), "shiftreport", time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "shiftreport", time.Minute, time.Hour)
	require.NoError(t, err)

	user := testUser()
	pair, err := issuer.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := issuer.Parse(pair.Access, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, model.RoleSupervisor, claims.Role)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.NotEmpty(t, claims.ID)

	refresh, err := issuer.Parse(pair.Refresh, RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, refresh.ID)
}

func TestParseRejectsWrongTokenType(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "shiftreport", time.Minute, time.Hour)
	require.NoError(t, err)

	pair, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = issuer.Parse(pair.Refresh, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.Parse(pair.Access, RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "shiftreport", time.Minute, time.Hour)
	require.NoError(t, err)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }

	token, err := issuer.IssueAccess(testUser())
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSignatureAndIssuer(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, "shiftreport", time.Minute, time.Hour)
	require.NoError(t, err)

	other, err := NewTokenIssuer(base64.StdEncoding.EncodeToString([]byte("ffffffffffffffffffffffffffffffff")), "shiftreport", time.Minute, time.Hour)
	require.NoError(t, err)
	token, err := other.IssueAccess(testUser())
	require.NoError(t, err)
	_, err = issuer.Parse(token, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherIssuer, err := NewTokenIssuer(testSecret, "someone-else", time.Minute, time.Hour)
	require.NoError(t, err)
	token, err = otherIssuer.IssueAccess(testUser())
	require.NoError(t, err)
	_, err = issuer.Parse(token, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not.a.token", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
