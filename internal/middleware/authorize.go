// AngelaMos | 2026
// authorize.go

package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

// Capability reports whether the caller identified by userID may proceed
// with r. A core.ErrNotFound error means the guarded entity is missing.
type Capability func(r *http.Request, userID string) (bool, error)

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// OwnerLookup resolves the owning user id of the entity with the given id.
type OwnerLookup func(ctx context.Context, id string) (string, error)

// Admin grants when the caller holds an admin record with is_admin set.
func Admin(checker AdminChecker) Capability {
	return func(r *http.Request, userID string) (bool, error) {
		return checker.IsAdmin(r.Context(), userID)
	}
}

// Owner grants when the caller owns the entity named by urlParam.
func Owner(lookup OwnerLookup, urlParam string) Capability {
	return func(r *http.Request, userID string) (bool, error) {
		ownerID, err := lookup(r.Context(), chi.URLParam(r, urlParam))
		if err != nil {
			return false, err
		}
		return ownerID == userID, nil
	}
}

// Authorize lets the request through when any capability grants.
// Unauthenticated callers get 401, everyone else who is not granted 403.
func Authorize(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				core.JSONError(w, core.UnauthorizedError("authentication required"))
				return
			}

			for _, capability := range caps {
				granted, err := capability(r, userID)
				if err != nil {
					if errors.Is(err, core.ErrNotFound) {
						core.HandleError(w, err)
						return
					}
					core.InternalServerError(w, err)
					return
				}
				if granted {
					next.ServeHTTP(w, r)
					return
				}
			}

			core.JSONError(
				w,
				core.ForbiddenError("you are not allowed to perform this action"),
			)
		})
	}
}

func RequireAdmin(checker AdminChecker) func(http.Handler) http.Handler {
	return Authorize(Admin(checker))
}
