package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Quote is a row of the quotes table.
type Quote struct {
	ID                string
	DistrictName      string
	ContactName       string
	ContactRole       string
	Email             string
	StudentCount      int32
	BusCount          int32
	LegacyBusCount    int32
	NewBusCount       int32
	Tier              string
	AmountCents       int64
	HardwareCostCents int64
	SetupFeeCents     int64
	Status            string
	SubmittedDate     string
	PricingSnapshot   pqtype.NullRawMessage
	DocumentKey       sql.NullString
	SubmittedAt       time.Time
	DecidedAt         sql.NullTime
	UpdatedAt         time.Time
}

// Job is a row of the jobs table.
type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      json.RawMessage
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	ErrorMessage sql.NullString
	CreatedAt    time.Time
}

// QuoteStatusTotal is one row of the pipeline summary.
type QuoteStatusTotal struct {
	Status      string
	Count       int64
	AmountCents int64
}
