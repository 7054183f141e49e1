package common

const (
	// AuthorizationHeaderName carries the bearer credential on authenticated routes.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token in the Authorization header.
	BearerPrefix = "Bearer "

	// MinPasswordLength is the shortest password accepted on signup.
	MinPasswordLength = 6
)

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72
