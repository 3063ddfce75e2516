package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/frikords/apiserver/internal/mq"
	"github.com/frikords/apiserver/types"
)

// Event channels consumed by external fan-out services.
const (
	EventChannelMessages   = "frikords.messages"
	EventChannelModeration = "frikords.moderation"
)

// AuditRepository defines the append-only log persistence.
type AuditRepository interface {
	Append(ctx context.Context, entry types.AuditEntry) error
}

// AuditService writes security-relevant entries and publishes domain
// events. Both are best-effort: a failed write or publish is logged to
// stderr and never fails the request that triggered it.
type AuditService struct {
	repo   AuditRepository
	events *mq.MQ
}

func NewAuditService(repo AuditRepository, events *mq.MQ) *AuditService {
	return &AuditService{repo: repo, events: events}
}

// Record appends an audit entry. userID may be 0 for anonymous callers.
func (s *AuditService) Record(ctx context.Context, level, source, message, details, ip string, userID int) {
	if s == nil || s.repo == nil {
		return
	}
	entry := types.AuditEntry{
		Level:   level,
		Source:  source,
		Message: message,
		Details: details,
		IP:      ip,
		UserID:  userID,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		log.Printf("audit: append failed: %v", err)
	}
}

// Publish emits a JSON domain event to the named channel. A nil broker
// makes this a no-op.
func (s *AuditService) Publish(ctx context.Context, channel, kind string, payload any) {
	if s == nil || s.events == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: encode %s failed: %v", kind, err)
		return
	}
	attrs := map[string]string{
		"kind": kind,
		"at":   time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := s.events.Publish(ctx, channel, data, attrs); err != nil {
		log.Printf("events: publish %s failed: %v", kind, err)
	}
}
