package dao

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash := GenPasswordHash("correct horse battery staple")

	assert.True(t, strings.HasPrefix(hash, "pbkdf2_sha256$260000$"))
	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestCheckPasswordHashMalformed(t *testing.T) {
	assert.False(t, CheckPasswordHash("password", ""))
	assert.False(t, CheckPasswordHash("password", "plaintext"))
	assert.False(t, CheckPasswordHash("password", "pbkdf2_sha256$260000$saltonly"))
}

func TestGenPassword(t *testing.T) {
	pass := GenPassword()
	assert.Len(t, pass, 12)
	assert.NotEqual(t, pass, GenPassword())
}

func TestAddDefaultUser(t *testing.T) {
	db := setupTestDB(t)

	AddDefaultUser(db, "admin@test.local")

	var user User
	require.NoError(t, db.Where("email = ?", "admin@test.local").First(&user).Error)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, user.IsSuperuser)
	assert.NotEmpty(t, user.Password)
}

func TestPaginationRequest(t *testing.T) {
	db := setupTestDB(t)
	for _, name := range []string{"alpha", "bravo", "charlie"} {
		createTestUser(t, db, name)
	}

	var users []User
	res, err := PaginationRequest(1, 2, db.Model(&User{}).Order("username"), &users)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Count)
	assert.Equal(t, 1, res.Offset)
	assert.Equal(t, 2, res.Limit)
	require.Len(t, users, 2)
	assert.Equal(t, "bravo", users[0].Username)
}
