package postgres

import (
	"context"
	"fmt"

	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
)

type AuditRepository struct {
	db DB
}

func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts one audit row. The table is append-only; no update or
// delete statements exist in this repository.
func (r *AuditRepository) Append(ctx context.Context, event *domain.AuditEvent) error {
	query := `
		INSERT INTO audit_logs (id, user_id, event_type, event_category, event_description,
		                        result, error_message, ip_address, user_agent, request_id,
		                        target_type, target_id, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''),
		        NULLIF($11, ''), NULLIF($12, ''), $13)`

	_, err := r.db.Exec(ctx, query,
		event.ID, event.UserID, event.EventType, event.EventCategory, event.Description,
		event.Result, event.ErrorMessage, event.IPAddress, event.UserAgent, event.RequestID,
		event.TargetType, event.TargetID, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
