package service

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/openreviews/review-square/internal/authz"
	"github.com/openreviews/review-square/internal/config"
	"github.com/openreviews/review-square/internal/models"
)

var (
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	// Usernames that collide with API routes
	reservedUsernames = map[string]bool{"me": true}
)

// authorize maps a policy denial to the error taxonomy: anonymous actors
// get an authentication error, authenticated ones a permission error.
func authorize(actor *models.User, action authz.Action, res authz.Resource) error {
	if authz.CanPerform(actor, action, res) {
		return nil
	}
	if actor == nil {
		return ErrAuthRequired
	}
	return ErrPermissionDenied
}

func validateIdentity(limits config.Validation, username, email string) error {
	if username == "" {
		return invalidField("username", "must not be empty")
	}
	if utf8.RuneCountInString(username) > limits.UsernameMaxLength {
		return invalidField("username", fmt.Sprintf("must be at most %d characters", limits.UsernameMaxLength))
	}
	if !usernameRegex.MatchString(username) {
		return invalidField("username", "may contain only letters, digits and @/./+/-/_")
	}
	if reservedUsernames[username] {
		return invalidField("username", "this username is reserved")
	}

	if !emailRegex.MatchString(email) {
		return invalidField("email", "invalid email format")
	}
	if utf8.RuneCountInString(email) > limits.EmailMaxLength {
		return invalidField("email", fmt.Sprintf("must be at most %d characters", limits.EmailMaxLength))
	}

	return nil
}

func validateNameSlug(limits config.Validation, name, slug string) error {
	if name == "" {
		return invalidField("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > limits.NameMaxLength {
		return invalidField("name", fmt.Sprintf("must be at most %d characters", limits.NameMaxLength))
	}
	if slug == "" {
		return invalidField("slug", "must not be empty")
	}
	if utf8.RuneCountInString(slug) > limits.SlugMaxLength {
		return invalidField("slug", fmt.Sprintf("must be at most %d characters", limits.SlugMaxLength))
	}
	if !slugRegex.MatchString(slug) {
		return invalidField("slug", "may contain only letters, digits, hyphens and underscores")
	}
	return nil
}
