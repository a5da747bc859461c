package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"email valide", "user@example.com", false},
		{"email valide avec sous-domaine", "user@mail.example.com", false},
		{"email vide", "", true},
		{"email sans @", "userexample.com", true},
		{"email sans domaine", "user@", true},
		{"email format invalide", "invalid", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			assert.Equal(t, tt.wantErr, err != nil, "ValidateEmail(%q) = %v", tt.email, err)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"mot de passe valide", "password123", false},
		{"mot de passe limite", "12345678", false},
		{"mot de passe vide", "", true},
		{"mot de passe trop court", "1234567", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidatePassword(tt.password) != nil)
		})
	}
}

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("nom", "Amine"))
	assert.Error(t, ValidateRequired("nom", ""))
	assert.Error(t, ValidateRequired("nom", "   "))
}

func TestValidateLength(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		min     int
		max     int
		wantErr bool
	}{
		{"dans les bornes", "bonjour", 1, 10, false},
		{"vide", "  ", 1, 10, true},
		{"trop long", "abcdefghijk", 1, 10, true},
		{"accents comptés en caractères", "éééééééééé", 1, 10, false},
		{"sans maximum", "un texte assez long", 3, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidateLength("champ", tt.value, tt.min, tt.max) != nil)
		})
	}
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone(""))
	assert.NoError(t, ValidatePhone("+216 22 333 444"))
	assert.NoError(t, ValidatePhone("06.12.34.56.78"))
	assert.Error(t, ValidatePhone("abc"))
	assert.Error(t, ValidatePhone("123"))
}

func TestValidateOneOf(t *testing.T) {
	assert.NoError(t, ValidateOneOf("role", "admin", "admin", "membre"))
	err := ValidateOneOf("role", "pirate", "admin", "membre")
	assert.EqualError(t, err, "role: valeur invalide (attendu: admin, membre)")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}
