// Package models defines the credential type registered with the engine.
package models

import (
	"strings"
	"time"

	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
)

// CredentialType is an immutable registration. IDs are dense and sequential
// from 0; a type is never deleted or updated in place.
type CredentialType struct {
	ID           id.CredentialTypeID `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Creator      id.Address          `json:"creator"`
	RegisteredAt time.Time           `json:"registered_at"`
	// StartTime and EndTime bound the minting window in unix seconds.
	// The window is [StartTime, EndTime); EndTime 0 means unbounded.
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	// Price is the minimum attached value on the signed-authorization mint
	// path. 0 means free. The role path ignores it.
	Price uint64 `json:"price"`
}

// NewCredentialType validates registration input. The store assigns the ID.
func NewCredentialType(name, description string, creator id.Address, startTime, endTime int64, price uint64, now time.Time) (*CredentialType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name must not be blank")
	}
	if startTime < 0 || endTime < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "window bounds must not be negative")
	}
	if endTime != 0 && endTime <= startTime {
		return nil, dErrors.New(dErrors.CodeValidation, "end time must be 0 or after start time")
	}
	return &CredentialType{
		Name:         name,
		Description:  strings.TrimSpace(description),
		Creator:      creator,
		RegisteredAt: now,
		StartTime:    startTime,
		EndTime:      endTime,
		Price:        price,
	}, nil
}

// WindowStarted reports whether minting has opened at the given instant.
func (ct *CredentialType) WindowStarted(now int64) bool {
	return now >= ct.StartTime
}

// WindowEnded reports whether minting has closed at the given instant.
func (ct *CredentialType) WindowEnded(now int64) bool {
	return ct.EndTime != 0 && now >= ct.EndTime
}
