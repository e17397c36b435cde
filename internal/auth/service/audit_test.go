package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/reyer3/Pulso-Back-sub001/internal/auth/domain"
	"github.com/reyer3/Pulso-Back-sub001/internal/auth/service"
	"github.com/reyer3/Pulso-Back-sub001/internal/mocks"
	"github.com/reyer3/Pulso-Back-sub001/pkg/constant"
)

func TestEventCategory(t *testing.T) {
	tests := []struct {
		eventType string
		want      string
	}{
		{constant.EventLoginSuccess, constant.CategoryAuth},
		{constant.EventLogout, constant.CategoryAuth},
		{constant.EventTokenRefresh, constant.CategoryAuth},
		{constant.EventLoginFailed, constant.CategorySecurity},
		{constant.EventLoginBlockedLocked, constant.CategorySecurity},
		{constant.EventAccountLocked, constant.CategorySecurity},
		{constant.EventCSRFViolation, constant.CategorySecurity},
		{constant.EventAuthzFailure, constant.CategorySecurity},
		{constant.EventUserCreated, constant.CategoryUserMgmt},
		{constant.EventRoleDeleted, constant.CategoryRoleMgmt},
		{"something_unknown", constant.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, service.EventCategory(tt.eventType))
		})
	}
}

func TestAuditRecorder_FillsDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	recorder := service.NewAuditRecorder(mockRepo)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recorder.SetNow(func() time.Time { return now })

	var captured *domain.AuditEvent
	mockRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *domain.AuditEvent) error {
			captured = e
			return nil
		})

	recorder.Record(context.Background(), &domain.AuditEvent{
		UserID:    "user-1",
		EventType: constant.EventLoginFailed,
	})

	assert.NotEmpty(t, captured.ID)
	assert.Equal(t, constant.CategorySecurity, captured.EventCategory)
	assert.Equal(t, constant.ResultSuccess, captured.Result)
	assert.Equal(t, now, captured.CreatedAt)
}

func TestAuditRecorder_AppendFailureSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	recorder := service.NewAuditRecorder(mockRepo)

	mockRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		Return(errors.New("insert failed"))

	// Must not panic or propagate the error.
	recorder.Record(context.Background(), &domain.AuditEvent{
		EventType: constant.EventLogout,
	})
}

func TestAuditRecorder_KeepsExplicitValues(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	recorder := service.NewAuditRecorder(mockRepo)

	var captured *domain.AuditEvent
	mockRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *domain.AuditEvent) error {
			captured = e
			return nil
		})

	recorder.Record(context.Background(), &domain.AuditEvent{
		ID:            "evt-1",
		EventType:     constant.EventLoginFailed,
		EventCategory: constant.CategoryGeneral,
		Result:        constant.ResultError,
	})

	assert.Equal(t, "evt-1", captured.ID)
	assert.Equal(t, constant.CategoryGeneral, captured.EventCategory)
	assert.Equal(t, constant.ResultError, captured.Result)
}
