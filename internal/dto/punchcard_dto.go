package dto

import "github.com/google/uuid"

type PunchResponse struct {
	PunchID uuid.UUID `json:"punch_id"`
}
