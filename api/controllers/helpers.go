package controllers

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bakeline-backend/pkg/dates"
	pkgerrors "github.com/angelmondragon/bakeline-backend/pkg/errors"
)

func parseUUIDField(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field})
	}
	return id, nil
}

func parseOptionalUUIDField(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := parseUUIDField(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalDayField(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	day, err := dates.ParseDay(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field, "format": dates.Layout})
	}
	return &day, nil
}
