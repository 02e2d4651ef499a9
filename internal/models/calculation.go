package models

import "time"

// CalculationLog records one add operation performed through the math API.
type CalculationLog struct {
	ID        string    `json:"id" db:"id"`
	OperandA  float64   `json:"operandA" db:"operand_a"`
	OperandB  float64   `json:"operandB" db:"operand_b"`
	Result    float64   `json:"result" db:"result"`
	UserID    string    `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
