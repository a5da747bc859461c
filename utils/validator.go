package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// ValidationError représente une erreur de validation
type ValidationError struct {
	Field   string
	Message string
}

// Error implémente l'interface error
func (v ValidationError) Error() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// NormalizeEmail met un email en minuscules sans espaces
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail valide un email
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "l'email est requis"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "format d'email invalide"}
	}
	return nil
}

// ValidatePassword valide un mot de passe
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "le mot de passe est requis"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "le mot de passe doit contenir au moins 8 caractères"}
	}
	return nil
}

// ValidateRequired valide qu'un champ n'est pas vide
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: fmt.Sprintf("le champ %s est requis", field)}
	}
	return nil
}

// ValidateLength valide la longueur (en caractères) d'un champ texte
func ValidateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min {
		if min == 1 {
			return ValidationError{Field: field, Message: fmt.Sprintf("le champ %s est requis", field)}
		}
		return ValidationError{Field: field, Message: fmt.Sprintf("le champ %s doit contenir au moins %d caractères", field, min)}
	}
	if max > 0 && n > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("le champ %s ne doit pas dépasser %d caractères", field, max)}
	}
	return nil
}

// ValidatePhone valide un numéro de téléphone (vide accepté)
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}

	cleaned := strings.NewReplacer(" ", "", ".", "", "-", "").Replace(phone)
	if !phoneRegex.MatchString(cleaned) {
		return ValidationError{Field: "telephone", Message: "format de téléphone invalide"}
	}

	return nil
}

// ValidateOneOf valide qu'une valeur fait partie d'une liste autorisée
func ValidateOneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return ValidationError{Field: field, Message: fmt.Sprintf("valeur invalide (attendu: %s)", strings.Join(allowed, ", "))}
}
