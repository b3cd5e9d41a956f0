package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/esports-registration/repositories"
)

// Классы ошибок. Handlers маппят их на HTTP статусы через errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("requested resource not found")
	ErrConflict       = errors.New("conflict with current state")
	ErrUnauthorized   = errors.New("authentication required")
	ErrForbidden      = errors.New("operation not allowed for the current user")
	ErrTransientStore = errors.New("store temporarily unavailable")
	ErrUnavailable    = errors.New("feature is not configured")
)

// serviceError is a specific error with a user-facing message that belongs
// to one of the classes above.
type serviceError struct {
	class error
	msg   string
}

func (e *serviceError) Error() string { return e.msg }

func (e *serviceError) Is(target error) bool { return target == e.class }

func newError(class error, msg string) error {
	return &serviceError{class: class, msg: msg}
}

// Ошибки турниров
var (
	ErrTournamentNotFound                = newError(ErrNotFound, "tournament not found")
	ErrTournamentNameRequired            = newError(ErrValidation, "tournament name is required")
	ErrTournamentStartRequired           = newError(ErrValidation, "tournament start date is required")
	ErrTournamentLocationRequired        = newError(ErrValidation, "tournament location is required")
	ErrTournamentInvalidDateRange        = newError(ErrValidation, "tournament end date must not be before start date")
	ErrTournamentInvalidStatusTransition = newError(ErrConflict, "invalid tournament status transition")
	ErrTournamentNotUpcoming             = newError(ErrConflict, "tournament is not upcoming")
	ErrTournamentNotActive               = newError(ErrConflict, "tournament is not active")
	ErrTournamentFinished                = newError(ErrConflict, "tournament is already completed or cancelled")
	ErrNotEnoughParticipants             = newError(ErrConflict, "at least 2 active teams are required to start the tournament")
	ErrInvalidLogoType                   = newError(ErrValidation, "logo must be a JPEG, PNG or WebP image")
	ErrLogoUploadDisabled                = newError(ErrUnavailable, "logo storage is not configured")
)

// Ошибки участников и фасилитаторов
var (
	ErrTeamIDRequired        = newError(ErrValidation, "teamID is required")
	ErrUserIDRequired        = newError(ErrValidation, "userID is required")
	ErrTeamAlreadyRegistered = newError(ErrConflict, "Team is already registered for this tournament.")
	ErrFacilitatorExists     = newError(ErrConflict, "Facilitator already exists for this tournament.")
	ErrParticipantNotFound   = newError(ErrNotFound, "team not found in this tournament")
	ErrFacilitatorNotFound   = newError(ErrNotFound, "facilitator not found in this tournament")
)

// Ошибки матчей
var (
	ErrMatchNotFound       = newError(ErrNotFound, "match not found")
	ErrMatchNotScheduled   = newError(ErrConflict, "match is not scheduled")
	ErrTieNotAllowed       = newError(ErrValidation, "scores must differ: ties are not allowed")
	ErrNegativeScore       = newError(ErrValidation, "scores must not be negative")
	ErrBracketChanged      = newError(ErrConflict, "bracket was modified concurrently, retry the request")
	ErrNotEnoughForBracket = newError(ErrValidation, "at least 2 active participants are required to generate a bracket")
)

// Ошибки доступа
var (
	ErrAuthRequired = newError(ErrUnauthorized, "authentication required")
	ErrNotOrganizer = newError(ErrForbidden, "only the tournament creator or a facilitator can perform this action")
)

// translateStoreError переводит ошибки репозиториев в ошибки сервисного слоя.
func translateStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrStoreUnavailable):
		return fmt.Errorf("%w: %v", ErrTransientStore, err)
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrParticipantConflict):
		return ErrTeamAlreadyRegistered
	case errors.Is(err, repositories.ErrFacilitatorConflict):
		return ErrFacilitatorExists
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchConflict):
		return fmt.Errorf("%w: %v", ErrBracketChanged, err)
	case errors.Is(err, repositories.ErrParticipantNotFound):
		return ErrParticipantNotFound
	case errors.Is(err, repositories.ErrFacilitatorNotFound):
		return ErrFacilitatorNotFound
	}
	return err
}
