// Package authz holds the request authorization policy: one pure decision
// function combining authentication state, role and object ownership.
package authz

import (
	"github.com/google/uuid"

	"github.com/openreviews/review-square/internal/models"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Kind string

const (
	KindUser     Kind = "user"
	KindCategory Kind = "category"
	KindGenre    Kind = "genre"
	KindTitle    Kind = "title"
	KindReview   Kind = "review"
	KindComment  Kind = "comment"
)

// Resource identifies the target of a request. Owner is the author id for
// reviews and comments and uuid.Nil for everything else.
type Resource struct {
	Kind  Kind
	Owner uuid.UUID
}

// CanPerform decides whether actor may run action against res.
// actor is nil for anonymous requests. The decision is pure: no lookups,
// no side effects.
//
// Precedence:
//  1. reads are always allowed, anonymous included
//  2. writes require authentication; categories, genres, titles and user
//     administration additionally require admin
//  3. review/comment creation needs only authentication; update/delete
//     is open to admins, moderators and the owner
//  4. everything else is denied
func CanPerform(actor *models.User, action Action, res Resource) bool {
	if action == ActionRead {
		return true
	}
	if actor == nil {
		return false
	}

	switch res.Kind {
	case KindCategory, KindGenre, KindTitle, KindUser:
		return actor.IsAdmin()
	case KindReview, KindComment:
		if action == ActionCreate {
			return true
		}
		return actor.IsAdmin() || actor.IsModerator() || actor.ID == res.Owner
	}

	return false
}
