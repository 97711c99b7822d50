package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRole("user")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@x.com", NormalizeEmail("  ADA@x.Com "))
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	u := User{ID: "1", Email: "a@b.c", PasswordHash: "$2a$10$secret", Role: RoleUser}
	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Current: 2, Pages: 3, Total: 21}, NewPagination(2, 10, 21))
	assert.Equal(t, Pagination{Current: 1, Pages: 0, Total: 0}, NewPagination(1, 10, 0))
	assert.Equal(t, Pagination{Current: 1, Pages: 0, Total: 5}, NewPagination(1, 0, 5))
}
