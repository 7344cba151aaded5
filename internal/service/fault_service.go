// internal/service/fault_service.go
package service

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/linkpulse-backend/internal/errors"
	"github.com/unclebandit/linkpulse-backend/internal/model"
	"github.com/unclebandit/linkpulse-backend/internal/repository"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 1 * time.Second
)

// ResolverInterface is the one resolver call the fault handler wraps
type ResolverInterface interface {
	Resolve(routingKey string, raw []byte, payload *model.WebhookPayload) (*ResolvedDelivery, error)
}

// FaultService wraps a resolver invocation with bounded retries. When
// the budget is exhausted it archives the payload, raises an operator
// notification, and re-raises the original error so the sender observes
// a failure response and can redeliver.
type FaultService struct {
	Resolver    ResolverInterface
	FailureRepo repository.FailureRepositoryInterface

	MaxAttempts int
	BackoffBase time.Duration
	Sleep       func(time.Duration) // injectable for tests
}

func NewFaultService(resolver ResolverInterface, failureRepo repository.FailureRepositoryInterface) *FaultService {
	return &FaultService{
		Resolver:    resolver,
		FailureRepo: failureRepo,
		MaxAttempts: defaultMaxAttempts,
		BackoffBase: defaultBackoffBase,
		Sleep:       time.Sleep,
	}
}

func (s *FaultService) ProcessDelivery(routingKey string, raw []byte, payload *model.WebhookPayload) (*ResolvedDelivery, error) {
	maxAttempts := s.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		resolved, err := s.Resolver.Resolve(routingKey, raw, payload)
		if err == nil {
			return resolved, nil
		}
		lastErr = err

		// Resolution errors are deterministic: fail fast, no retries.
		if appErrors.IsResolutionError(err) {
			break
		}

		if attempt < maxAttempts {
			delay := s.BackoffBase << (attempt - 1)
			log.Printf("⚠️ delivery attempt %d/%d failed: %v, retrying in %v\n", attempt, maxAttempts, err, delay)
			sleep(delay)
		}
	}

	s.recordFailure(raw, payload, lastErr, attempts)
	return nil, lastErr
}

// recordFailure writes the archive and the notification independently:
// a failure in one never suppresses the other, and neither replaces the
// original error.
func (s *FaultService) recordFailure(raw []byte, payload *model.WebhookPayload, cause error, attempts int) {
	correlationID := uuid.NewString()
	severity := classifySeverity(cause.Error())

	archive := &model.FailureArchive{
		CorrelationID: correlationID,
		Payload:       raw,
		ErrorText:     cause.Error(),
		RetryCount:    attempts,
		Severity:      severity,
	}
	if len(raw) > model.MaxPayloadBytes {
		archive.Payload = nil
		archive.ErrorText = fmt.Sprintf("%s (payload of %d bytes not archived)", cause.Error(), len(raw))
	}
	if payload != nil {
		if payload.Contact.ID != 0 {
			archive.ContactExternalID = strconv.FormatInt(payload.Contact.ID, 10)
		}
		archive.InstanceToken = payload.Messenger.CampaignInstanceID
	}

	if err := s.FailureRepo.CreateArchive(archive); err != nil {
		log.Println("⚠️ failed to write failure archive:", err)
	}

	notification := &model.Notification{
		CorrelationID: correlationID,
		Severity:      severity,
		Message:       fmt.Sprintf("webhook delivery failed after %d attempt(s): %s", attempts, cause.Error()),
	}
	if err := s.FailureRepo.CreateNotification(notification); err != nil {
		log.Println("⚠️ failed to write notification:", err)
	}
}

// classifySeverity buckets a terminal error by its text. Storage and
// connectivity trouble is critical; bad or missing identifiers are a
// warning; everything else is a plain error.
func classifySeverity(errText string) string {
	s := strings.ToLower(errText)

	critical := []string{"storage", "database", "connect", "timeout", "unavailable"}
	for _, kw := range critical {
		if strings.Contains(s, kw) {
			return model.SeverityCritical
		}
	}

	warning := []string{"invalid", "missing", "not found", "unknown"}
	for _, kw := range warning {
		if strings.Contains(s, kw) {
			return model.SeverityWarning
		}
	}

	return model.SeverityError
}
