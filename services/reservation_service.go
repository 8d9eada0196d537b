package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/comanda-app/comanda-api/models"
)

// ReservationService manages advance bookings. Booking a table marks it
// reserved; seating the party or cancelling the booking hands it back to
// the order flow.
type ReservationService struct {
	db     *gorm.DB
	tables *TableService
}

// NewReservationService creates a reservation service
func NewReservationService(db *gorm.DB, tables *TableService) *ReservationService {
	return &ReservationService{db: db, tables: tables}
}

// CreateReservationInput carries a booking request
type CreateReservationInput struct {
	TableID      uint
	CustomerName string
	Phone        string
	PartySize    int
	ReservedFor  time.Time
	Notes        string
}

// Create books a table. The table must exist, be active and currently
// available; the booking flips it to reserved.
func (s *ReservationService) Create(ctx context.Context, input CreateReservationInput) (*models.Reservation, error) {
	if input.CustomerName == "" {
		return nil, &ValidationError{Message: "reservation needs a customer name"}
	}
	if input.PartySize <= 0 {
		input.PartySize = 1
	}
	if input.ReservedFor.Before(time.Now()) {
		return nil, &ValidationError{Message: "reservation time is in the past"}
	}

	var reservation models.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, input.TableID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "table", ID: input.TableID}
			}
			return fmt.Errorf("failed to load table %d: %w", input.TableID, err)
		}
		if !table.IsActive || table.Status != models.TableStatusAvailable {
			return &ConflictError{Message: fmt.Sprintf("table %d cannot be reserved (status: %s)", table.Number, table.Status)}
		}
		if table.Capacity < input.PartySize {
			return &ValidationError{Message: fmt.Sprintf("table %d seats %d, party of %d will not fit",
				table.Number, table.Capacity, input.PartySize)}
		}

		reservation = models.Reservation{
			TableID:      table.ID,
			CustomerName: input.CustomerName,
			Phone:        input.Phone,
			PartySize:    input.PartySize,
			ReservedFor:  input.ReservedFor,
			Status:       models.ReservationStatusBooked,
			Notes:        input.Notes,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}

		if err := tx.Model(&table).Update("status", models.TableStatusReserved).Error; err != nil {
			return fmt.Errorf("failed to reserve table %d: %w", table.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// MarkSeated records that the party arrived. The table stays reserved until
// the waiter opens their order, which occupies it.
func (s *ReservationService) MarkSeated(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	return s.close(ctx, reservationID, models.ReservationStatusSeated, false)
}

// Cancel releases the booking and puts the table back in the pool
func (s *ReservationService) Cancel(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	return s.close(ctx, reservationID, models.ReservationStatusCancelled, true)
}

// MarkNoShow closes the booking as a no-show and frees the table
func (s *ReservationService) MarkNoShow(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	return s.close(ctx, reservationID, models.ReservationStatusNoShow, true)
}

func (s *ReservationService) close(ctx context.Context, reservationID uint, status string, releaseTable bool) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Resource: "reservation", ID: reservationID}
			}
			return fmt.Errorf("failed to load reservation %d: %w", reservationID, err)
		}
		if reservation.Status != models.ReservationStatusBooked {
			return &ConflictError{Message: fmt.Sprintf("reservation %d is already %s", reservationID, reservation.Status)}
		}

		if err := tx.Model(&reservation).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update reservation %d: %w", reservationID, err)
		}
		reservation.Status = status

		if releaseTable {
			res := tx.Model(&models.Table{}).
				Where("id = ? AND status = ?", reservation.TableID, models.TableStatusReserved).
				Update("status", models.TableStatusAvailable)
			if res.Error != nil {
				return fmt.Errorf("failed to release table %d: %w", reservation.TableID, res.Error)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// List returns reservations for a given day, soonest first
func (s *ReservationService) List(ctx context.Context, day time.Time) ([]models.Reservation, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Preload("Table").
		Where("reserved_for >= ? AND reserved_for < ?", start, end).
		Order("reserved_for asc").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return reservations, nil
}
