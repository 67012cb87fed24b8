package app

import (
	"context"

	memberApp "realtime_chat_service/internal/member/app"
	memberDomain "realtime_chat_service/internal/member/domain"
	memberRepo "realtime_chat_service/internal/member/repository"
)

type memberDirectory struct {
	members memberApp.MemberUseCase
}

// NewMemberDirectory adapts the member use case for websocket
// authentication.
func NewMemberDirectory(members memberApp.MemberUseCase) MemberDirectory {
	return &memberDirectory{members: members}
}

func (d *memberDirectory) Lookup(ctx context.Context, memberID string) (*ChatMember, error) {
	if memberID == "" {
		return nil, memberRepo.ErrMemberNotFound
	}
	member, err := d.members.FindMember(ctx, &memberDomain.MemberQuery{MemberID: &memberID})
	if err != nil {
		return nil, err
	}
	return &ChatMember{
		ID:       member.MemberID,
		Username: member.Username,
		Active:   member.IsActive,
	}, nil
}
