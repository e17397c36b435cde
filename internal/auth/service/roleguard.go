package service

import (
	"context"
	"fmt"

	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
	autherror "github.com/reyer3/Pulso-Back-sub001/internal/errors"
	"github.com/reyer3/Pulso-Back-sub001/pkg/constant"
)

// AuthorizeRoleMutation guards role updates. System roles can only be
// modified by a superadmin; custom roles follow the regular permission check.
func (s *AuthService) AuthorizeRoleMutation(ctx context.Context, actor *domain.AuthContext, role *domain.Role) error {
	if role.IsSystem && !actor.IsSuperadmin() {
		s.RecordAuthzFailure(ctx, actor, "role", role.ID,
			fmt.Sprintf("attempt to modify system role %s", role.Name))
		return autherror.ErrSystemRoleMutation
	}
	return nil
}

// AuthorizeRoleDeletion guards role deletion. System roles are never
// deletable, regardless of who asks.
func (s *AuthService) AuthorizeRoleDeletion(ctx context.Context, actor *domain.AuthContext, role *domain.Role) error {
	if role.IsSystem {
		s.RecordAuthzFailure(ctx, actor, "role", role.ID,
			fmt.Sprintf("attempt to delete system role %s", role.Name))
		return autherror.ErrSystemRoleDelete
	}
	return nil
}

// RecordAuthzFailure writes an authorization_failure audit row for a denied
// action, attributing it to the acting principal when one is known.
func (s *AuthService) RecordAuthzFailure(ctx context.Context, actor *domain.AuthContext, targetType, targetID, description string) {
	event := &domain.AuditEvent{
		EventType:   constant.EventAuthzFailure,
		Description: description,
		Result:      constant.ResultFailure,
		TargetType:  targetType,
		TargetID:    targetID,
	}
	if actor != nil {
		event.UserID = actor.User.ID
		event.IPAddress = actor.IPAddress
		event.UserAgent = actor.UserAgent
		event.RequestID = actor.RequestID
	}
	s.audit.Record(ctx, event)
}
