package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateAndParseJWT(t *testing.T) {
	tok, err := GenerateJWT("member-1", string(RoleMember), time.Hour)
	assert.NoError(t, err)
	assert.NotEmpty(t, tok)

	claims, err := ParseJWT(tok)
	assert.NoError(t, err)
	assert.Equal(t, "member-1", claims.MemberID)
	assert.Equal(t, string(RoleMember), claims.Role)
}

func TestParseJWT_Expired(t *testing.T) {
	tok, err := GenerateJWT("member-1", string(RoleMember), -time.Minute)
	assert.NoError(t, err)

	_, err = ParseJWT(tok)
	assert.Error(t, err)
}

func TestParseJWT_Garbage(t *testing.T) {
	_, err := ParseJWT("not-a-token")
	assert.Error(t, err)
}
