package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSession(t *testing.T) {
	u := User{
		ID:                 7,
		UserHandle:         "Uabc",
		LoginID:            "kim1",
		Name:               "Kim",
		Role:               UserRoleAdmin,
		MustChangePassword: true,
	}

	s := NewSession(u)
	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, "Uabc", s.UserHandle)
	assert.Equal(t, "kim1", s.LoginID)
	assert.Equal(t, "Kim", s.Name)
	assert.Equal(t, UserRoleAdmin, s.Role)
	assert.True(t, s.MustChangePassword)
	assert.False(t, s.IsImpersonated)
	assert.False(t, s.Impersonating())

	s.AdminID = 3
	assert.True(t, s.Impersonating())
}

func TestCustomerTypeValid(t *testing.T) {
	assert.True(t, CustomerTypeNew.Valid())
	assert.True(t, CustomerTypeProtected.Valid())
	assert.False(t, CustomerType("기타").Valid())
	assert.False(t, CustomerType("").Valid())
}
