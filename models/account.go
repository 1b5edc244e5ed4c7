package models

import "time"

// GuestUsername is the reserved identity used by unauthenticated clients.
// Guest accounts are never persisted and cannot hold favorites.
const GuestUsername = "guest"

// FavoriteAction names one side of the favorites toggle protocol.
type FavoriteAction string

const (
	FavoriteAdd    FavoriteAction = "add"
	FavoriteRemove FavoriteAction = "remove"
)

// Account is the persisted user record. The password hash travels to disk but
// must never reach a client; handlers respond with Public() views only.
type Account struct {
	Username     string        `json:"username"`
	PasswordHash string        `json:"passwordHash"`
	Favorites    []MovieRecord `json:"favorites"`
	CreatedAt    time.Time     `json:"createdAt,omitempty"`
}

// PublicAccount is the client-facing view of an account.
type PublicAccount struct {
	Username  string        `json:"username"`
	Favorites []MovieRecord `json:"favorites"`
}

// Public strips the password hash from the account. Favorites is never nil so
// clients always receive an array.
func (a Account) Public() PublicAccount {
	favorites := a.Favorites
	if favorites == nil {
		favorites = []MovieRecord{}
	}
	return PublicAccount{Username: a.Username, Favorites: favorites}
}
