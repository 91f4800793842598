package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"go-sklad/internal/apperr"
	"go-sklad/internal/docstore"
	"go-sklad/internal/models"
)

const (
	RoleAdmin  = "admin"
	RoleSeller = "seller"
)

// Users keeps accounts as documents in the users collection.
type Users struct {
	store docstore.Gateway
}

func NewUsers(store docstore.Gateway) *Users {
	return &Users{store: store}
}

func (u *Users) find(ctx context.Context, username string) (models.User, error) {
	docs, err := u.store.Query(ctx, models.CollectionUsers, docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("username", username)},
		Limit:   1,
	})
	if err != nil {
		return models.User{}, err
	}
	if len(docs) == 0 {
		return models.User{}, apperr.New("findUser", apperr.ErrNotFound, username)
	}
	var user models.User
	if err := docs[0].Decode(&user); err != nil {
		return models.User{}, apperr.Wrap("findUser", apperr.ErrInvalidState, username, err)
	}
	user.ID = docs[0].ID
	return user, nil
}

// Register creates an account. The first account becomes the admin.
func (u *Users) Register(ctx context.Context, username, password string) (models.User, error) {
	const op = "register"
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, apperr.New(op, apperr.ErrValidation, "username, password")
	}
	if _, err := u.find(ctx, username); err == nil {
		return models.User{}, apperr.New(op, apperr.ErrInvalidState, "user "+username+" already exists")
	} else if apperr.KindOf(err) != apperr.ErrNotFound {
		return models.User{}, err
	}

	role := RoleSeller
	existing, err := u.store.Query(ctx, models.CollectionUsers, docstore.Query{Limit: 1})
	if err != nil {
		return models.User{}, err
	}
	if len(existing) == 0 {
		role = RoleAdmin
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, apperr.Wrap(op, apperr.ErrValidation, "password", err)
	}
	user := models.User{Username: username, PasswordHash: string(hashed), Role: role}
	fields, err := docstore.FieldsOf(user)
	if err != nil {
		return models.User{}, apperr.Wrap(op, apperr.ErrValidation, username, err)
	}
	fields["createdAt"] = docstore.ServerTimestamp

	user.ID, err = u.store.Create(ctx, models.CollectionUsers, fields)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Authenticate checks a password. Unknown users and wrong passwords fail the
// same way.
func (u *Users) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	const op = "login"
	user, err := u.find(ctx, username)
	if err != nil {
		if apperr.KindOf(err) == apperr.ErrNotFound {
			return models.User{}, apperr.New(op, apperr.ErrUnauthenticated, "invalid credentials")
		}
		return models.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apperr.New(op, apperr.ErrUnauthenticated, "invalid credentials")
	}
	return user, nil
}

// UserIdentity is the identity a signed-in user acts under. The username
// doubles as the display name stamped on documents.
func UserIdentity(u models.User) Identity {
	return Identity{UserID: u.ID, Email: u.Username, Role: u.Role}
}
