package service

import (
	"errors"
	"fmt"
	"strings"

	"fleetconsole/backend/libs/identity"
	"fleetconsole/backend/services/fleet-service/internal/repository"
)

var (
	// ErrValidation wraps rejected input.
	ErrValidation = errors.New("fleet: validation failed")
	// ErrNotFound is returned for rows that do not exist or are not visible.
	ErrNotFound = errors.New("fleet: not found")
	// ErrForbidden is returned when the caller's role may not perform the operation.
	ErrForbidden = errors.New("fleet: forbidden")
	// ErrConflict is returned for duplicates.
	ErrConflict = errors.New("fleet: conflict")
	// ErrUpstream is returned when auth-service fails.
	ErrUpstream = errors.New("fleet: upstream failure")
)

func requireAdmin(viewer identity.Identity) error {
	if viewer.Role != identity.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func requireDeveloper(viewer identity.Identity) error {
	if viewer.Role != identity.RoleDeveloper {
		return ErrForbidden
	}
	return nil
}

// translate maps repository errors onto service errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrVehicleNotFound),
		errors.Is(err, repository.ErrCustomerNotFound),
		errors.Is(err, repository.ErrDeveloperNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrDeviceTaken),
		errors.Is(err, repository.ErrDeveloperExists),
		errors.Is(err, repository.ErrCustomerTaken):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, repository.ErrUnknownDeveloper),
		errors.Is(err, repository.ErrUnknownVehicle):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case errors.Is(err, repository.ErrUnsupportedRole):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	return err
}

// dedupe trims ids, drops blanks and keeps first occurrences.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
