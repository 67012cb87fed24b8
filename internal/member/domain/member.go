package domain

import (
	"time"

	"realtime_chat_service/pkg/encrypt"
)

// Member represents a registered user.
type Member struct {
	ID        int64
	MemberID  string
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
	IsActive  bool
}

// IsPasswordMatch verifies the login password against the stored hash.
func (m *Member) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(m.Password, inputPwd)
}

// MemberQuery join conditions are used to query members
type MemberQuery struct {
	ID       *int64  `db:"id"`
	MemberID *string `db:"member_id"`
	Email    *string `db:"email"`
	Username *string `db:"username"`
}
