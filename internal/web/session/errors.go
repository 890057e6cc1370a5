package session

import "github.com/Laisky/errors/v2"

// ErrUnauthorized the session is not logged in as admin, or the password is wrong
var ErrUnauthorized = errors.New("unauthorized")
