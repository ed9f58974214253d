package contract

import (
	"context"
	"strings"
	"time"

	"github.com/lehoang82vt/solar-platform-sub001/internal/audit"
	"github.com/lehoang82vt/solar-platform-sub001/internal/domainerr"
	"github.com/lehoang82vt/solar-platform-sub001/internal/events"
	"github.com/lehoang82vt/solar-platform-sub001/internal/models"
	"github.com/lehoang82vt/solar-platform-sub001/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CreateInput struct {
	QuoteID                string
	DepositPercentage      decimal.Decimal
	ExpectedStartDate      *time.Time
	ExpectedCompletionDate *time.Time
	WarrantyYears          int
	Notes                  *string
}

// SignInput records one or both signatures. CompanySigner is required with Company.
type SignInput struct {
	Customer      bool
	Company       bool
	CompanySigner string
}

// UpdateInput changes draft terms. Nil fields are left untouched.
type UpdateInput struct {
	Notes                  *string
	ExpectedStartDate      *time.Time
	ExpectedCompletionDate *time.Time
}

// Service runs the contract lifecycle. Business rule violations are returned as
// *domainerr.Error values and leave the stored contract unchanged.
type Service struct {
	tx        repository.Transactor
	contracts repository.ContractRepository
	quotes    repository.QuoteRepository
	audit     *audit.Writer
	events    events.Publisher
	numbers   *NumberGenerator
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(
	tx repository.Transactor,
	contracts repository.ContractRepository,
	quotes repository.QuoteRepository,
	auditWriter *audit.Writer,
	publisher events.Publisher,
	logger zerolog.Logger,
) *Service {
	return &Service{
		tx:        tx,
		contracts: contracts,
		quotes:    quotes,
		audit:     auditWriter,
		events:    publisher,
		numbers:   NewNumberGenerator(),
		logger:    logger.With().Str("component", "contract_service").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a DRAFT contract for an accepted quote.
func (s *Service) Create(ctx context.Context, tenantID, actor string, in CreateInput) (models.Contract, error) {
	if strings.TrimSpace(in.QuoteID) == "" {
		return models.Contract{}, domainerr.New(domainerr.InvalidInput, entity, "quote id is required")
	}
	if in.WarrantyYears < 0 {
		return models.Contract{}, domainerr.New(domainerr.InvalidInput, entity, "warranty years must not be negative")
	}
	if err := checkExpectedDates(in.ExpectedStartDate, in.ExpectedCompletionDate); err != nil {
		return models.Contract{}, err
	}

	var created models.Contract
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		quote, err := s.quotes.Get(ctx, sess, in.QuoteID)
		if errors.Is(err, repository.ErrNotFound) {
			return domainerr.New(domainerr.QuoteNotFound, "quote", "quote not found")
		}
		if err != nil {
			return errors.Wrap(err, "load quote")
		}
		if quote.Status != models.QuoteStatusAccepted {
			return domainerr.WithState(domainerr.QuoteNotAccepted, "quote", string(quote.Status), "only accepted quotes can become contracts")
		}
		exists, err := s.contracts.ExistsForQuote(ctx, sess, quote.ID)
		if err != nil {
			return errors.Wrap(err, "check existing contract")
		}
		if exists {
			return domainerr.New(domainerr.AlreadyExists, entity, "quote already has a contract")
		}

		deposit, final, err := SplitDeposit(quote.TotalAmount, in.DepositPercentage)
		if err != nil {
			return err
		}

		c := models.Contract{
			QuoteID:                quote.ID,
			ContractNumber:         s.numbers.Next(s.now()),
			Status:                 models.ContractStatusDraft,
			DepositPercentage:      in.DepositPercentage,
			DepositAmount:          deposit,
			FinalPaymentAmount:     final,
			TotalAmount:            quote.TotalAmount,
			ExpectedStartDate:      in.ExpectedStartDate,
			ExpectedCompletionDate: in.ExpectedCompletionDate,
			WarrantyYears:          in.WarrantyYears,
			Notes:                  in.Notes,
			CreatedBy:              optional(actor),
		}
		created, err = s.contracts.Create(ctx, sess, c)
		if err != nil {
			return errors.Wrap(err, "insert contract")
		}
		return s.writeAudit(ctx, sess, actor, audit.ActionContractCreated, created, map[string]interface{}{
			"contract_number": created.ContractNumber,
			"quote_id":        created.QuoteID,
			"total_amount":    created.TotalAmount,
		})
	})
	return created, err
}

func (s *Service) Get(ctx context.Context, tenantID, contractID string) (models.Contract, error) {
	var c models.Contract
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		var err error
		c, err = s.load(ctx, sess, contractID, false)
		return err
	})
	return c, err
}

// Sign records signatures on a DRAFT contract. Existing signatures are never
// overwritten. When both are present the contract becomes SIGNED.
func (s *Service) Sign(ctx context.Context, tenantID, contractID, actor string, in SignInput) (models.Contract, error) {
	if !in.Customer && !in.Company {
		return models.Contract{}, domainerr.New(domainerr.InvalidInput, entity, "at least one signature is required")
	}
	signer := strings.TrimSpace(in.CompanySigner)
	if in.Company && signer == "" {
		return models.Contract{}, domainerr.New(domainerr.SignerRequired, entity, "company signature requires a signer")
	}

	var (
		saved     models.Contract
		nowSigned bool
	)
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		c, err := s.load(ctx, sess, contractID, true)
		if err != nil {
			return err
		}
		if c.Status != models.ContractStatusDraft {
			return domainerr.WithState(domainerr.InvalidState, entity, string(c.Status), "only draft contracts can be signed")
		}

		now := s.now()
		var recorded []string
		if in.Customer && c.CustomerSignedAt == nil {
			c.CustomerSignedAt = &now
			recorded = append(recorded, "customer")
		}
		if in.Company && c.CompanySignedAt == nil {
			c.CompanySignedAt = &now
			c.CompanySignedBy = &signer
			recorded = append(recorded, "company")
		}
		if len(recorded) == 0 {
			saved = c
			return nil
		}
		if c.FullySigned() {
			if err := ValidateTransition(c.Status, models.ContractStatusSigned); err != nil {
				return err
			}
			c.Status = models.ContractStatusSigned
			nowSigned = true
		}

		saved, err = s.contracts.Save(ctx, sess, c)
		if err != nil {
			return errors.Wrap(err, "save contract")
		}
		action := audit.ActionContractSignature
		if nowSigned {
			action = audit.ActionContractSigned
		}
		return s.writeAudit(ctx, sess, actor, action, saved, map[string]interface{}{
			"signatures": recorded,
			"status":     saved.Status,
		})
	})
	if err != nil {
		return models.Contract{}, err
	}

	if nowSigned {
		events.PublishQuietly(ctx, s.events, s.logger, events.Event{
			TenantID:   saved.TenantID,
			Type:       models.EventContractSigned,
			EntityType: entity,
			EntityID:   saved.ID,
			Payload: map[string]interface{}{
				"contract_number": saved.ContractNumber,
				"total_amount":    saved.TotalAmount,
				"deposit_amount":  saved.DepositAmount,
			},
		})
	}
	return saved, nil
}

// Transition moves a contract to IN_PROGRESS or COMPLETED along the edge table and
// stamps the matching actual date if it is not set yet.
func (s *Service) Transition(ctx context.Context, tenantID, contractID, actor string, to models.ContractStatus) (models.Contract, error) {
	if !IsExplicitTarget(to) {
		return models.Contract{}, &domainerr.Error{
			Kind:      domainerr.InvalidToStatus,
			Entity:    entity,
			Requested: string(to),
			Message:   "target status must be IN_PROGRESS or COMPLETED",
		}
	}

	var saved models.Contract
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		c, err := s.load(ctx, sess, contractID, true)
		if err != nil {
			return err
		}
		from := c.Status
		if err := ValidateTransition(from, to); err != nil {
			return err
		}

		today := dateOf(s.now())
		c.Status = to
		switch to {
		case models.ContractStatusInProgress:
			if c.ActualStartDate == nil {
				c.ActualStartDate = &today
			}
		case models.ContractStatusCompleted:
			if c.ActualCompletionDate == nil {
				c.ActualCompletionDate = &today
			}
		}

		saved, err = s.contracts.Save(ctx, sess, c)
		if err != nil {
			return errors.Wrap(err, "save contract")
		}
		return s.writeAudit(ctx, sess, actor, audit.ActionContractStatus, saved, map[string]interface{}{
			"from": from,
			"to":   to,
		})
	})
	return saved, err
}

// Cancel diverts a contract to CANCELLED. The reason is stored exactly as given.
func (s *Service) Cancel(ctx context.Context, tenantID, contractID, actor, reason string) (models.Contract, error) {
	if strings.TrimSpace(reason) == "" {
		return models.Contract{}, domainerr.New(domainerr.ReasonRequired, entity, "cancellation reason is required")
	}

	var saved models.Contract
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		c, err := s.load(ctx, sess, contractID, true)
		if err != nil {
			return err
		}
		if !IsCancellable(c.Status) {
			return domainerr.WithState(domainerr.InvalidState, entity, string(c.Status), "contract cannot be cancelled")
		}

		from := c.Status
		now := s.now()
		c.Status = models.ContractStatusCancelled
		c.CancellationReason = &reason
		c.CancelledAt = &now

		saved, err = s.contracts.Save(ctx, sess, c)
		if err != nil {
			return errors.Wrap(err, "save contract")
		}
		return s.writeAudit(ctx, sess, actor, audit.ActionContractCancelled, saved, map[string]interface{}{
			"from":   from,
			"reason": reason,
		})
	})
	return saved, err
}

// Update edits notes and expected dates. Only DRAFT contracts are editable.
func (s *Service) Update(ctx context.Context, tenantID, contractID, actor string, in UpdateInput) (models.Contract, error) {
	var saved models.Contract
	err := s.tx.WithTenant(ctx, tenantID, func(sess repository.Session) error {
		c, err := s.load(ctx, sess, contractID, true)
		if err != nil {
			return err
		}
		if c.Status != models.ContractStatusDraft {
			return domainerr.WithState(domainerr.Locked, entity, string(c.Status), "contract terms are locked once it leaves DRAFT")
		}

		changed := []string{}
		if in.Notes != nil {
			c.Notes = in.Notes
			changed = append(changed, "notes")
		}
		if in.ExpectedStartDate != nil {
			c.ExpectedStartDate = in.ExpectedStartDate
			changed = append(changed, "expected_start_date")
		}
		if in.ExpectedCompletionDate != nil {
			c.ExpectedCompletionDate = in.ExpectedCompletionDate
			changed = append(changed, "expected_completion_date")
		}
		if err := checkExpectedDates(c.ExpectedStartDate, c.ExpectedCompletionDate); err != nil {
			return err
		}
		if len(changed) == 0 {
			saved = c
			return nil
		}

		saved, err = s.contracts.Save(ctx, sess, c)
		if err != nil {
			return errors.Wrap(err, "save contract")
		}
		return s.writeAudit(ctx, sess, actor, audit.ActionContractUpdated, saved, map[string]interface{}{
			"fields": changed,
		})
	})
	return saved, err
}

// Timeline loads the contract and projects its lifecycle events.
func (s *Service) Timeline(ctx context.Context, tenantID, contractID string) ([]TimelineEvent, error) {
	c, err := s.Get(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	return BuildTimeline(c), nil
}

func (s *Service) load(ctx context.Context, sess repository.Session, contractID string, forUpdate bool) (models.Contract, error) {
	get := s.contracts.Get
	if forUpdate {
		get = s.contracts.GetForUpdate
	}
	c, err := get(ctx, sess, contractID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Contract{}, domainerr.New(domainerr.ContractNotFound, entity, "contract not found")
	}
	if err != nil {
		return models.Contract{}, errors.Wrap(err, "load contract")
	}
	return c, nil
}

func (s *Service) writeAudit(ctx context.Context, sess repository.Session, actor, action string, c models.Contract, meta map[string]interface{}) error {
	_, err := s.audit.Write(ctx, sess, audit.Entry{
		TenantID:   sess.TenantID(),
		Actor:      actor,
		Action:     action,
		EntityType: entity,
		EntityID:   c.ID,
		Metadata:   meta,
	})
	return errors.Wrapf(err, "audit %s", action)
}

func checkExpectedDates(start, completion *time.Time) error {
	if start != nil && completion != nil && completion.Before(*start) {
		return domainerr.New(domainerr.InvalidInput, entity, "expected completion date is before expected start date")
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
