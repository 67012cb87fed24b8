package token

import "time"

// These variables are swapped out by tests.
var (
	GenerateJWTFunc = GenerateJWT
	ParseJWTFunc    = ParseJWT
)

// GenerateJWTWrapper lets usecase tests mock token issuance.
func GenerateJWTWrapper(memberID, role string, ttl time.Duration) (string, error) {
	return GenerateJWTFunc(memberID, role, ttl)
}

// ParseJWTWrapper lets usecase tests mock token parsing.
func ParseJWTWrapper(t string) (*Claims, error) {
	return ParseJWTFunc(t)
}
