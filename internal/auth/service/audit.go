package service

import (
	"context"
	"log"
	"time"

	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
	"github.com/reyer3/Pulso-Back-sub001/internal/ids"
	"github.com/reyer3/Pulso-Back-sub001/internal/obs"
	"github.com/reyer3/Pulso-Back-sub001/pkg/constant"
)

// eventCategories maps event types to their fixed category. Unknown types
// fall back to general.
var eventCategories = map[string]string{
	constant.EventLoginSuccess:       constant.CategoryAuth,
	constant.EventLogout:             constant.CategoryAuth,
	constant.EventTokenRefresh:       constant.CategoryAuth,
	constant.EventPasswordChange:     constant.CategoryAuth,
	constant.EventLoginError:         constant.CategoryAuth,
	constant.EventUserCreated:        constant.CategoryUserMgmt,
	constant.EventUserUpdated:        constant.CategoryUserMgmt,
	constant.EventUserDeleted:        constant.CategoryUserMgmt,
	constant.EventUserLocked:         constant.CategoryUserMgmt,
	constant.EventRoleCreated:        constant.CategoryRoleMgmt,
	constant.EventRoleUpdated:        constant.CategoryRoleMgmt,
	constant.EventRoleDeleted:        constant.CategoryRoleMgmt,
	constant.EventRoleAssigned:       constant.CategoryRoleMgmt,
	constant.EventAccountLocked:      constant.CategorySecurity,
	constant.EventLoginFailed:        constant.CategorySecurity,
	constant.EventLoginBlockedLocked: constant.CategorySecurity,
	constant.EventCSRFViolation:      constant.CategorySecurity,
	constant.EventAuthzFailure:       constant.CategorySecurity,
}

// EventCategory resolves the audit category for an event type.
func EventCategory(eventType string) string {
	if cat, ok := eventCategories[eventType]; ok {
		return cat
	}
	return constant.CategoryGeneral
}

// AuditRecorder appends security events best-effort: a persistence failure
// is reported to the operational log and counted, never propagated to the
// operation that triggered the event.
type AuditRecorder struct {
	repo domain.AuditRepository
	now  func() time.Time
}

func NewAuditRecorder(repo domain.AuditRepository) *AuditRecorder {
	return &AuditRecorder{repo: repo, now: time.Now}
}

// Record fills in id, category and timestamp, then appends the event.
func (a *AuditRecorder) Record(ctx context.Context, event *domain.AuditEvent) {
	if event.ID == "" {
		event.ID = ids.New()
	}
	if event.EventCategory == "" {
		event.EventCategory = EventCategory(event.EventType)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = a.now().UTC()
	}
	if event.Result == "" {
		event.Result = constant.ResultSuccess
	}

	if err := a.repo.Append(ctx, event); err != nil {
		obs.ObserveAuditDropped()
		log.Printf("warn: failed to record audit event %s: %v", event.EventType, err)
	}
}
