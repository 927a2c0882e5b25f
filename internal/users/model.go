package users

import "github.com/wayfarerhq/wayfarer/backend/internal/store"

// Sheet is the backing sheet for user rows.
const Sheet = "Users"

// User is one row of the Users sheet. The password hash never serializes;
// the auth token does, because login responses hand it to the client.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	DisplayName  string `json:"display_name"`
	AvatarURL    string `json:"avatar_url"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	AuthToken    string `json:"auth_token,omitempty"`
}

func fromRow(row store.Row) User {
	return User{
		ID:           row["id"],
		Email:        row["email"],
		PasswordHash: row["password_hash"],
		DisplayName:  row["display_name"],
		AvatarURL:    row["avatar_url"],
		CreatedAt:    row["created_at"],
		UpdatedAt:    row["updated_at"],
		AuthToken:    row["auth_token"],
	}
}
