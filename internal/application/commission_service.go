package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/StayNest-Travel/service-billing/internal/config"
	"github.com/StayNest-Travel/service-billing/internal/domain"
	commissionDomain "github.com/StayNest-Travel/service-billing/internal/domain/commission"
	hotelDomain "github.com/StayNest-Travel/service-billing/internal/domain/hotel"
	"github.com/StayNest-Travel/service-billing/internal/events"
)

// CommissionDTO is the API representation of a commission invoice.
type CommissionDTO struct {
	ID                uuid.UUID `json:"id"`
	HotelID           uuid.UUID `json:"hotel_id"`
	Month             int       `json:"month"`
	Year              int       `json:"year"`
	TotalBookings     int       `json:"total_bookings"`
	TotalRevenue      float64   `json:"total_revenue"`
	CommissionPercent int       `json:"commission_percent"`
	CommissionAmount  float64   `json:"commission_amount"`
	PenaltyAmount     float64   `json:"penalty_amount"`
	TotalPayable      float64   `json:"total_payable"`
	Status            string    `json:"status"`
	DueDate           time.Time `json:"due_date"`
}

// GenerateResult summarizes one invoicing run.
type GenerateResult struct {
	Month          int      `json:"month"`
	Year           int      `json:"year"`
	HotelsInvoiced int      `json:"hotels_invoiced"`
	Failed         []string `json:"failed,omitempty"`
}

// RefreshResult summarizes one overdue scan.
type RefreshResult struct {
	MarkedOverdue int `json:"marked_overdue"`
	HotelsBlocked int `json:"hotels_blocked"`
}

// EventPublisher publishes billing events; nil-safe abstraction over Kafka.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, e events.Envelope) error
}

// CommissionService materializes monthly commission invoices and advances
// them through the unpaid/overdue/paid lifecycle.
type CommissionService struct {
	commissions commissionDomain.Repository
	hotels      hotelDomain.Repository
	bookings    hotelDomain.BookingRepository
	publisher   EventPublisher
	clock       clockwork.Clock
	cfg         config.BillingConfig
	logger      *zap.Logger
}

// NewCommissionService creates a CommissionService. publisher may be nil
// when event publication is not wired (tests, one-off admin tooling).
func NewCommissionService(
	commissions commissionDomain.Repository,
	hotels hotelDomain.Repository,
	bookings hotelDomain.BookingRepository,
	publisher EventPublisher,
	clock clockwork.Clock,
	cfg config.BillingConfig,
	logger *zap.Logger,
) *CommissionService {
	return &CommissionService{
		commissions: commissions,
		hotels:      hotels,
		bookings:    bookings,
		publisher:   publisher,
		clock:       clock,
		cfg:         cfg,
		logger:      logger,
	}
}

// Generate upserts one commission invoice per listable hotel for the given
// period. Zero month/year default to the current period. Each hotel is
// written independently, so a failure mid-run leaves earlier hotels
// correctly invoiced; re-running recomputes and overwrites without
// duplicating rows.
func (s *CommissionService) Generate(ctx context.Context, month, year int) (*GenerateResult, error) {
	now := s.clock.Now().UTC()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return nil, domain.NewValidationError("month must be 1-12")
	}

	periodStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)
	dueDate := truncateToDay(now).AddDate(0, 0, s.cfg.DueDays)

	hotels, err := s.hotels.FindListable(ctx)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{Month: month, Year: year}
	for _, h := range hotels {
		if err := s.generateForHotel(ctx, h, month, year, periodStart, periodEnd, dueDate); err != nil {
			s.logger.Error("failed to invoice hotel",
				zap.String("hotel_id", h.ID.String()),
				zap.Int("month", month),
				zap.Int("year", year),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, h.ID.String())
			continue
		}
		result.HotelsInvoiced++
	}

	s.logger.Info("commission generation completed",
		zap.Int("month", month),
		zap.Int("year", year),
		zap.Int("hotels_invoiced", result.HotelsInvoiced),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *CommissionService) generateForHotel(ctx context.Context, h *hotelDomain.Hotel, month, year int, from, to, dueDate time.Time) error {
	revenue, err := s.bookings.RevenueForPeriod(ctx, h.ID, from, to)
	if err != nil {
		return fmt.Errorf("aggregate bookings: %w", err)
	}

	inv, err := commissionDomain.NewCommission(
		h.ID, month, year,
		revenue.TotalBookings, revenue.TotalRevenue,
		s.cfg.CommissionPercent, dueDate,
	)
	if err != nil {
		return err
	}

	if err := s.commissions.Upsert(ctx, inv); err != nil {
		// A concurrent run may have hit the uniqueness constraint first;
		// one retry resolves to the overwrite path.
		if errors.Is(err, domain.ErrConflict) {
			return s.commissions.Upsert(ctx, inv)
		}
		return err
	}
	return nil
}

// RefreshOverdueStatus transitions stale unpaid invoices to overdue with a
// one-time penalty, and blocks hotels whose invoices stayed overdue past the
// grace window. Blocking is a cross-entity mutation that removes the hotel
// from customer-facing listings, so it is logged explicitly and announced on
// the billing topic.
func (s *CommissionService) RefreshOverdueStatus(ctx context.Context) (*RefreshResult, error) {
	today := truncateToDay(s.clock.Now().UTC())
	result := &RefreshResult{}

	pastDue, err := s.commissions.FindUnpaidDueBefore(ctx, today)
	if err != nil {
		return nil, err
	}
	for _, inv := range pastDue {
		if err := inv.MarkOverdue(s.cfg.PenaltyPercent); err != nil {
			continue
		}
		if err := s.commissions.Update(ctx, inv); err != nil {
			s.logger.Error("failed to persist overdue transition",
				zap.String("commission_id", inv.ID().String()),
				zap.Error(err),
			)
			continue
		}
		result.MarkedOverdue++
		s.logger.Info("commission marked overdue",
			zap.String("commission_id", inv.ID().String()),
			zap.String("hotel_id", inv.HotelID().String()),
			zap.String("penalty", inv.PenaltyAmount().String()),
		)
	}

	overdue, err := s.commissions.FindOverdue(ctx)
	if err != nil {
		return nil, err
	}
	for _, inv := range overdue {
		if !inv.BlockDeadlinePassed(today, s.cfg.BlockGraceDays) {
			continue
		}
		h, err := s.hotels.FindByID(ctx, inv.HotelID())
		if err != nil {
			s.logger.Error("failed to load hotel for blocking",
				zap.String("hotel_id", inv.HotelID().String()),
				zap.Error(err),
			)
			continue
		}
		if h.IsBlocked {
			continue
		}
		if err := s.hotels.Block(ctx, h.ID); err != nil {
			s.logger.Error("failed to block hotel",
				zap.String("hotel_id", h.ID.String()),
				zap.Error(err),
			)
			continue
		}
		result.HotelsBlocked++
		s.logger.Warn("hotel blocked for unpaid commission",
			zap.String("hotel_id", h.ID.String()),
			zap.String("commission_id", inv.ID().String()),
			zap.Time("due_date", inv.DueDate()),
		)
		s.publishHotelBlocked(ctx, h.ID, inv.ID())
	}

	return result, nil
}

// MarkPaid settles an invoice. Any accrued penalty is zeroed unconditionally.
func (s *CommissionService) MarkPaid(ctx context.Context, id uuid.UUID) (*CommissionDTO, error) {
	inv, err := s.commissions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := inv.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.commissions.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("commission marked paid",
		zap.String("commission_id", inv.ID().String()),
		zap.String("hotel_id", inv.HotelID().String()),
	)
	dto := toCommissionDTO(inv)
	return &dto, nil
}

// ListCommissions returns invoices with pagination.
func (s *CommissionService) ListCommissions(ctx context.Context, page, limit int) ([]CommissionDTO, int64, error) {
	invoices, total, err := s.commissions.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toCommissionDTOSlice(invoices), total, nil
}

// ListByPeriod returns all invoices for one billing period.
func (s *CommissionService) ListByPeriod(ctx context.Context, month, year int) ([]CommissionDTO, error) {
	invoices, err := s.commissions.FindByPeriod(ctx, month, year)
	if err != nil {
		return nil, err
	}
	return toCommissionDTOSlice(invoices), nil
}

func (s *CommissionService) publishHotelBlocked(ctx context.Context, hotelID, commissionID uuid.UUID) {
	if s.publisher == nil {
		return
	}
	env, err := events.NewEnvelope("service-billing", events.HotelBlocked, events.HotelBlockedEvent{
		HotelID:      hotelID,
		CommissionID: commissionID,
		Reason:       "commission overdue beyond grace period",
		OccurredAt:   s.clock.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to build hotel blocked event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, events.TopicBillingEvents, env); err != nil {
		s.logger.Error("failed to publish hotel blocked event", zap.Error(err))
	}
}

func toCommissionDTO(c *commissionDomain.Commission) CommissionDTO {
	return CommissionDTO{
		ID:                c.ID(),
		HotelID:           c.HotelID(),
		Month:             c.Month(),
		Year:              c.Year(),
		TotalBookings:     c.TotalBookings(),
		TotalRevenue:      c.TotalRevenue().InexactFloat64(),
		CommissionPercent: c.CommissionPercent(),
		CommissionAmount:  c.CommissionAmount().InexactFloat64(),
		PenaltyAmount:     c.PenaltyAmount().InexactFloat64(),
		TotalPayable:      c.TotalPayable().InexactFloat64(),
		Status:            string(c.Status()),
		DueDate:           c.DueDate(),
	}
}

func toCommissionDTOSlice(invoices []*commissionDomain.Commission) []CommissionDTO {
	out := make([]CommissionDTO, len(invoices))
	for i, inv := range invoices {
		out[i] = toCommissionDTO(inv)
	}
	return out
}
