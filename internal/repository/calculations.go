package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
)

// CalculationRepository records math operations for auditing.
type CalculationRepository struct {
	pool *pgxpool.Pool
}

func NewCalculationRepository(pool *pgxpool.Pool) *CalculationRepository {
	return &CalculationRepository{pool: pool}
}

func (r *CalculationRepository) CreateLog(ctx context.Context, userID string, a, b, result float64) (*models.CalculationLog, error) {
	var entry models.CalculationLog
	err := r.pool.QueryRow(ctx, `
		INSERT INTO calculation_logs (operand_a, operand_b, result, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, operand_a, operand_b, result, user_id, created_at`,
		a, b, result, userID).
		Scan(&entry.ID, &entry.OperandA, &entry.OperandB, &entry.Result, &entry.UserID, &entry.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "calcRepo.CreateLog"), "")
	}
	return &entry, nil
}
