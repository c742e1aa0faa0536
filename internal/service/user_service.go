package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"

	"github.com/AdamBeresnev/league-app/internal/store"
	users "github.com/AdamBeresnev/league-app/internal/user"
	"github.com/AdamBeresnev/league-app/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
)

type UserService struct {
	db    *sqlx.DB
	store *store.UserStore
}

func NewUserService(db *sqlx.DB, store *store.UserStore) *UserService {
	return &UserService{db: db, store: store}
}

// isAdminEmail checks the ADMIN_EMAILS allow-list, a comma-separated env
// value. Credential verification itself is the OAuth provider's problem.
func isAdminEmail(email string) bool {
	if email == "" {
		return false
	}
	for _, allowed := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if strings.EqualFold(strings.TrimSpace(allowed), email) {
			return true
		}
	}
	return false
}

func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL || user.Username != gothUser.NickName {
			user.AvatarURL = &gothUser.AvatarURL
			s.store.UpdateUserNameAndAvatar(ctx, user)
		}
		return user, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		newUser := &users.User{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   gothUser.Name,
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  &gothUser.AvatarURL,
			IsAdmin:    isAdminEmail(gothUser.Email),
		}
		err := s.store.CreateUser(ctx, newUser)
		return newUser, err
	}

	return nil, err
}
