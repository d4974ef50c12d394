package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/faithbyexperiments/content-api/internal/models"
)

const orderColumns = `id, provider_order_id, user_uid, plan_id, amount, currency, status,
			      provider_payment_id, pending_name, pending_email, pending_password_hash,
			      pending_mobile, created_at, paid_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	o := &models.Order{}
	var userUID, paymentID sql.NullString
	var pName, pEmail, pHash, pMobile sql.NullString
	var paidAt sql.NullTime
	if err := row.Scan(&o.ID, &o.ProviderOrderID, &userUID, &o.PlanID, &o.Amount, &o.Currency,
		&o.Status, &paymentID, &pName, &pEmail, &pHash, &pMobile, &o.CreatedAt, &paidAt); err != nil {
		return nil, err
	}
	if userUID.Valid {
		o.UserUID = &userUID.String
	}
	if paymentID.Valid {
		o.ProviderPaymentID = &paymentID.String
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if pName.Valid || pEmail.Valid || pHash.Valid {
		o.Pending = &models.PendingSignup{
			Name:         pName.String,
			Email:        pEmail.String,
			PasswordHash: pHash.String,
		}
		if pMobile.Valid {
			o.Pending.Mobile = &pMobile.String
		}
	}
	return o, nil
}

// CreateOrder вставляет новый платёжный ордер и возвращает его ID.
func (s *Storage) CreateOrder(ctx context.Context, order models.Order) (string, error) {
	const op = "storage.CreateOrder"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var pName, pEmail, pHash *string
	var pMobile *string
	if order.Pending != nil {
		pName = &order.Pending.Name
		pEmail = &order.Pending.Email
		pHash = &order.Pending.PasswordHash
		pMobile = order.Pending.Mobile
	}

	query := `INSERT INTO orders (id, provider_order_id, user_uid, plan_id, amount, currency,
			      status, pending_name, pending_email, pending_password_hash, pending_mobile)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		order.ID, order.ProviderOrderID, order.UserUID, order.PlanID, order.Amount,
		order.Currency, order.Status, pName, pEmail, pHash, pMobile).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetOrderByProviderOrderID возвращает ордер по идентификатору,
// присвоенному платёжным провайдером.
func (s *Storage) GetOrderByProviderOrderID(ctx context.Context, providerOrderID string) (*models.Order, error) {
	const op = "storage.GetOrderByProviderOrderID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + orderColumns + `
			  FROM orders
			  WHERE provider_order_id = $1`
	o, err := scanOrder(s.DB.QueryRowContext(ctx, query, providerOrderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// MarkOrderPaid переводит ордер в статус paid, привязывает платеж и владельца
// и в том же обновлении стирает отложенные данные регистрации:
// хэш пароля не должен переживать фулфилмент.
func (s *Storage) MarkOrderPaid(ctx context.Context, providerOrderID, providerPaymentID, userUID string, paidAt time.Time) error {
	const op = "storage.MarkOrderPaid"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE orders
			  SET status = $1,
			      provider_payment_id = $2,
			      user_uid = $3,
			      paid_at = $4,
			      pending_name = NULL,
			      pending_email = NULL,
			      pending_password_hash = NULL,
			      pending_mobile = NULL
			  WHERE provider_order_id = $5`
	_, err := s.DB.ExecContext(ctx, query,
		models.OrderStatusPaid, providerPaymentID, userUID, paidAt, providerOrderID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListOrdersByUser возвращает ордера пользователя, сначала самые новые.
func (s *Storage) ListOrdersByUser(ctx context.Context, userUID string, limit int) ([]*models.Order, error) {
	const op = "storage.ListOrdersByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + orderColumns + `
			  FROM orders
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
