package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, validateEmail("user@example.com"))
	assert.NoError(t, validateEmail("first.last+tag@sub.example.ge"))
	assert.Error(t, validateEmail(""))
	assert.Error(t, validateEmail("not-an-email"))
	assert.Error(t, validateEmail("missing@tld"))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, validatePassword(""))
	assert.Error(t, validatePassword("short"))
	assert.NoError(t, validatePassword("longenough"))
}
