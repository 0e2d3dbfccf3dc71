// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account as held by the user store.
//
// Optional profile fields use the empty string as their zero value rather than
// a nullable pointer. PasswordHash is tagged json:"-" so a User can be written
// to a response as-is without leaking the credential.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser is the input to UserRepository.Create. It has no ID field: the
// store assigns one on insert.
type NewUser struct {
	Email        string
	Name         string
	DisplayName  string
	PhotoURL     string
	PhoneNumber  string
	PasswordHash string
}

// SignUpInput is what a client submits to register.
type SignUpInput struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	DisplayName     string `json:"display_name,omitempty"`
	PhotoURL        string `json:"photo_url,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
}

// Credentials is what a client submits to sign in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
