// Package coretest provides an in-memory database for tests.
package coretest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/security"
)

// NewDatabase opens a migrated sqlite database private to t.
// It holds a single connection so the shared-cache memory database survives between queries.
func NewDatabase(t testing.TB) *core.DatabaseManager {
	t.Helper()
	security.PasswordCost = bcrypt.MinCost

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	dm, err := core.New("sqlite", dsn, 1, core.LogLevelSilent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })

	require.NoError(t, dm.Migrate(context.Background()))
	return dm
}

// CreateUser inserts a user with password "password123".
func CreateUser(t testing.TB, dm *core.DatabaseManager, username string, role model.Role) *model.User {
	t.Helper()
	user, err := core.NewUserDirectory(dm).CreateUser(context.Background(), core.NewUser{
		Username: username,
		Password: Password,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

const Password = "password123"
