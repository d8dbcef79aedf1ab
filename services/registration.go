package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"activity-hub/events"
	"activity-hub/metrics"
	"activity-hub/models"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("activity-hub/services")

// ScoringHook is called once per approved→attended transition, after the transition commits.
type ScoringHook interface {
	OnAttended(ctx context.Context, ins models.Inscription, activity models.Activity) error
}

type JoinResult struct {
	Inscription       models.Inscription `json:"inscription"`
	Participants      int                `json:"participants"`
	Capacity          *int               `json:"capacity"`
	AlreadyRegistered bool               `json:"already_registered"`
}

type TransitionResult struct {
	Inscription models.Inscription
	From        models.InscriptionStatus
	// ScoringErr is set when the scoring hook failed; the transition itself stands.
	ScoringErr error
}

type Counts struct {
	Participants int  `json:"participants"`
	Capacity     *int `json:"capacity"`
}

// activityCounters is the slice of an activity row the ledger reads.
type activityCounters struct {
	Capacity         *int
	RegisteredCount  int
	IsActive         bool
	RequiresApproval *bool
}

var legalTransitions = map[models.InscriptionStatus][]models.InscriptionStatus{
	models.InscriptionPending:  {models.InscriptionApproved, models.InscriptionRejected},
	models.InscriptionApproved: {models.InscriptionAttended},
}

// CanTransition reports whether from→to is a legal inscription transition.
func CanTransition(from, to models.InscriptionStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RegistrationService is the inscription ledger. It owns registered_count on the catalog
// tables and attended_count on members.
type RegistrationService struct {
	DB      *gorm.DB
	Catalog *CatalogService
	Scoring ScoringHook
	Events  events.Publisher
	Clock   clockwork.Clock
	Log     *slog.Logger
	Metrics *metrics.Metrics

	// RequireApproval is the default moderation policy; Activity.RequiresApproval overrides it.
	RequireApproval bool
}

func NewRegistrationService(db *gorm.DB, catalog *CatalogService, scoring ScoringHook) *RegistrationService {
	return &RegistrationService{
		DB:      db,
		Catalog: catalog,
		Scoring: scoring,
		Events:  events.Nop{},
		Clock:   clockwork.NewRealClock(),
		Log:     slog.Default().With("component", "registration"),
	}
}

// Join registers userID for the activity. Check and increment of the capacity counter are a
// single conditional UPDATE, so concurrent joins can never push registered_count past capacity.
// A user already holding a non-rejected inscription gets it back with AlreadyRegistered set.
func (s *RegistrationService) Join(ctx context.Context, userID string, v models.Variant, activityID string) (JoinResult, error) {
	ref := models.ActivityRef{Variant: v, ID: activityID}
	ctx, span := tracer.Start(ctx, "registration.Join", trace.WithAttributes(
		attribute.String("activity.ref", ref.String()),
	))
	defer span.End()
	defer s.Metrics.ObserveJoin(time.Now())

	result, err := s.join(ctx, userID, ref)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race against the same user's concurrent join
		result, err = s.existingJoin(ctx, userID, ref)
	}

	outcome := "joined"
	switch {
	case errors.Is(err, ErrCapacityExceeded):
		outcome = "full"
	case errors.Is(err, ErrActivityNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case result.AlreadyRegistered:
		outcome = "already_registered"
	}
	s.Metrics.IncJoin(string(v), outcome)
	span.SetAttributes(attribute.String("join.outcome", outcome))
	if err != nil {
		return JoinResult{}, err
	}

	if !result.AlreadyRegistered {
		s.Log.InfoContext(ctx, "inscription created",
			"inscription_id", result.Inscription.ID,
			"activity_ref", ref.String(),
			"status", result.Inscription.Status,
			"participants", result.Participants,
		)
		s.publish(ctx, events.TypeInscriptionCreated, result.Inscription, "")
	}
	return result, nil
}

func (s *RegistrationService) join(ctx context.Context, userID string, ref models.ActivityRef) (JoinResult, error) {
	spec, ok := SpecFor(ref.Variant)
	if !ok || ref.ID == "" {
		return JoinResult{}, fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
	}
	if userID == "" {
		return JoinResult{}, errors.New("join requires a user id")
	}

	var result JoinResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Inscription
		err := tx.Where("user_id = ? AND variant = ? AND activity_id = ?", userID, ref.Variant, ref.ID).
			First(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if found && existing.Status.Holds() {
			result, err = heldSeat(tx, spec, ref, existing)
			return err
		}

		res := tx.Model(spec.New()).
			Where("id = ? AND is_active = ?", ref.ID, true).
			Where("capacity IS NULL OR registered_count < capacity").
			UpdateColumn("registered_count", gorm.Expr("registered_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// The same user's concurrent join may have taken the last seat while this
			// UPDATE waited on the row lock; a fresh statement sees its committed row.
			var winner models.Inscription
			err := tx.Where("user_id = ? AND variant = ? AND activity_id = ?", userID, ref.Variant, ref.ID).
				Take(&winner).Error
			if err == nil && winner.Status.Holds() {
				result, err = heldSeat(tx, spec, ref, winner)
				return err
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			counters, err := loadCounters(tx, spec, ref)
			if err != nil {
				return err
			}
			if !counters.IsActive {
				return fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
			}
			return fmt.Errorf("%s: %w", ref, ErrCapacityExceeded)
		}

		counters, err := loadCounters(tx, spec, ref)
		if err != nil {
			return err
		}

		now := s.Clock.Now()
		status := models.InscriptionApproved
		if s.requiresApproval(counters) {
			status = models.InscriptionPending
		}
		var decidedAt *time.Time
		if status == models.InscriptionApproved {
			decidedAt = &now
		}

		if found {
			// a rejected inscription is revived so the pair keeps a single row
			existing.Status = status
			existing.DecidedAt = decidedAt
			existing.AttendedAt = nil
			existing.UpdatedAt = now
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			result = JoinResult{Inscription: existing}
		} else {
			ins := models.Inscription{
				ID:         uuid.NewString(),
				UserID:     userID,
				Variant:    ref.Variant,
				ActivityID: ref.ID,
				Status:     status,
				CreatedAt:  now,
				UpdatedAt:  now,
				DecidedAt:  decidedAt,
			}
			if err := tx.Create(&ins).Error; err != nil {
				return err
			}
			result = JoinResult{Inscription: ins}
		}
		result.Participants = counters.RegisteredCount
		result.Capacity = counters.Capacity
		return nil
	})
	return result, err
}

// heldSeat answers a repeated join with the seat the user already holds. An inactive
// activity is not found, as for any other join.
func heldSeat(tx *gorm.DB, spec VariantSpec, ref models.ActivityRef, ins models.Inscription) (JoinResult, error) {
	counters, err := loadCounters(tx, spec, ref)
	if err != nil {
		return JoinResult{}, err
	}
	if !counters.IsActive {
		return JoinResult{}, fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
	}
	return JoinResult{
		Inscription:       ins,
		Participants:      counters.RegisteredCount,
		Capacity:          counters.Capacity,
		AlreadyRegistered: true,
	}, nil
}

func (s *RegistrationService) existingJoin(ctx context.Context, userID string, ref models.ActivityRef) (JoinResult, error) {
	var existing models.Inscription
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND variant = ? AND activity_id = ?", userID, ref.Variant, ref.ID).
		First(&existing).Error; err != nil {
		return JoinResult{}, fmt.Errorf("reload inscription for %s: %w", ref, err)
	}
	counts, err := s.Counts(ctx, ref.Variant, ref.ID)
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{
		Inscription:       existing,
		Participants:      counts.Participants,
		Capacity:          counts.Capacity,
		AlreadyRegistered: true,
	}, nil
}

func (s *RegistrationService) requiresApproval(c activityCounters) bool {
	if c.RequiresApproval != nil {
		return *c.RequiresApproval
	}
	return s.RequireApproval
}

func loadCounters(tx *gorm.DB, spec VariantSpec, ref models.ActivityRef) (activityCounters, error) {
	var c activityCounters
	err := tx.Model(spec.New()).
		Select("capacity", "registered_count", "is_active", "requires_approval").
		Where("id = ?", ref.ID).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c, fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
	}
	return c, err
}

// SetStatus applies an admin or check-in transition. The inscription row is locked for the
// duration. On →attended the scoring hook runs after commit; its failure is reported in
// TransitionResult.ScoringErr and does not undo the transition.
func (s *RegistrationService) SetStatus(ctx context.Context, inscriptionID string, to models.InscriptionStatus) (TransitionResult, error) {
	ctx, span := tracer.Start(ctx, "registration.SetStatus", trace.WithAttributes(
		attribute.String("inscription.id", inscriptionID),
		attribute.String("inscription.to", string(to)),
	))
	defer span.End()

	var result TransitionResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ins models.Inscription
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", inscriptionID).First(&ins).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s: %w", inscriptionID, ErrInscriptionNotFound)
		}
		if err != nil {
			return err
		}

		from := ins.Status
		if !CanTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		spec, ok := SpecFor(ins.Variant)
		if !ok {
			return fmt.Errorf("inscription %s has unknown variant %q", ins.ID, ins.Variant)
		}

		now := s.Clock.Now()
		ins.Status = to
		ins.UpdatedAt = now
		switch to {
		case models.InscriptionApproved, models.InscriptionRejected:
			ins.DecidedAt = &now
		case models.InscriptionAttended:
			ins.AttendedAt = &now
		}
		if err := tx.Save(&ins).Error; err != nil {
			return err
		}

		switch to {
		case models.InscriptionRejected:
			if err := tx.Model(spec.New()).
				Where("id = ? AND registered_count > 0", ins.ActivityID).
				UpdateColumn("registered_count", gorm.Expr("registered_count - ?", 1)).Error; err != nil {
				return err
			}
		case models.InscriptionAttended:
			if err := recordAttendance(tx, ins.UserID, now); err != nil {
				return err
			}
		}

		result = TransitionResult{Inscription: ins, From: from}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrInscriptionNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return TransitionResult{}, err
	}

	s.Metrics.IncTransition(string(result.From), string(to))
	s.Log.InfoContext(ctx, "inscription status changed",
		"inscription_id", result.Inscription.ID,
		"from", result.From,
		"to", to,
	)

	if to == models.InscriptionAttended && s.Scoring != nil {
		result.ScoringErr = s.score(ctx, result.Inscription)
		if result.ScoringErr != nil {
			span.RecordError(result.ScoringErr)
		}
	}

	s.publish(ctx, events.TypeInscriptionStatusChanged, result.Inscription, result.From)
	return result, nil
}

// recordAttendance bumps the member's attended_count, creating the member on first attendance.
func recordAttendance(tx *gorm.DB, userID string, now time.Time) error {
	member := models.Member{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		Level:          1,
		AttendedCount:  1,
		LastAttendedAt: &now,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"attended_count":   gorm.Expr("members.attended_count + 1"),
			"last_attended_at": now,
			"updated_at":       now,
		}),
	}).Create(&member).Error
}

func (s *RegistrationService) score(ctx context.Context, ins models.Inscription) error {
	activity := models.Activity{ActivityRef: ins.Ref()}
	if s.Catalog != nil {
		if a, err := s.Catalog.GetByRef(ctx, ins.Variant, ins.ActivityID); err == nil {
			activity = a
		} else {
			s.Log.WarnContext(ctx, "scoring without activity details", "activity_ref", ins.Ref().String(), "error", err)
		}
	}

	if err := s.Scoring.OnAttended(ctx, ins, activity); err != nil {
		s.Metrics.IncScoringFailure()
		s.Log.ErrorContext(ctx, "scoring hook failed; attendance kept",
			"inscription_id", ins.ID,
			"user_id", ins.UserID,
			"error", err,
		)
		return err
	}
	return nil
}

func (s *RegistrationService) publish(ctx context.Context, eventType string, ins models.Inscription, from models.InscriptionStatus) {
	if s.Events == nil {
		return
	}
	evt := events.InscriptionEvent{
		Type:          eventType,
		InscriptionID: ins.ID,
		UserID:        ins.UserID,
		ActivityRef:   ins.Ref().String(),
		FromStatus:    string(from),
		Status:        string(ins.Status),
		OccurredAt:    s.Clock.Now(),
	}
	if err := s.Events.Publish(ctx, evt); err != nil {
		s.Log.WarnContext(ctx, "event publish failed", "type", eventType, "inscription_id", ins.ID, "error", err)
	}
}

// Counts returns the ledger's current projection for one activity.
func (s *RegistrationService) Counts(ctx context.Context, v models.Variant, activityID string) (Counts, error) {
	ref := models.ActivityRef{Variant: v, ID: activityID}
	spec, ok := SpecFor(v)
	if !ok {
		return Counts{}, fmt.Errorf("%s: %w", ref, ErrActivityNotFound)
	}
	c, err := loadCounters(s.DB.WithContext(ctx), spec, ref)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Participants: c.RegisteredCount, Capacity: c.Capacity}, nil
}

func (s *RegistrationService) Get(ctx context.Context, inscriptionID string) (models.Inscription, error) {
	var ins models.Inscription
	err := s.DB.WithContext(ctx).Where("id = ?", inscriptionID).First(&ins).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ins, fmt.Errorf("%s: %w", inscriptionID, ErrInscriptionNotFound)
	}
	return ins, err
}

func (s *RegistrationService) ListForUser(ctx context.Context, userID string) ([]models.Inscription, error) {
	var list []models.Inscription
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// ListForActivity lists an activity's inscriptions oldest first, optionally narrowed to one status.
func (s *RegistrationService) ListForActivity(ctx context.Context, v models.Variant, activityID string, status models.InscriptionStatus) ([]models.Inscription, error) {
	q := s.DB.WithContext(ctx).Where("variant = ? AND activity_id = ?", v, activityID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []models.Inscription
	err := q.Order("created_at ASC").Find(&list).Error
	return list, err
}

// Reconcile rewrites every drifted registered_count to its number of non-rejected inscriptions.
// Returns how many activity rows were repaired.
func (s *RegistrationService) Reconcile(ctx context.Context) (int64, error) {
	var repaired int64
	for _, v := range models.Variants {
		spec := variantSpecs[v]
		held := func() *gorm.DB {
			return s.DB.Model(&models.Inscription{}).
				Select("COUNT(*)").
				Where("inscriptions.variant = ? AND inscriptions.activity_id = "+spec.Table+".id", v).
				Where("inscriptions.status <> ?", models.InscriptionRejected)
		}
		res := s.DB.WithContext(ctx).Model(spec.New()).
			Where("registered_count <> (?)", held()).
			UpdateColumn("registered_count", held())
		if res.Error != nil {
			return repaired, fmt.Errorf("reconcile %s: %w", spec.Table, res.Error)
		}
		if res.RowsAffected > 0 {
			s.Log.WarnContext(ctx, "repaired drifted registered_count", "variant", v, "rows", res.RowsAffected)
		}
		repaired += res.RowsAffected
	}
	return repaired, nil
}
