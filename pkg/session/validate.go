package session

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
)

// validateCreate checks a CreateRequest against the configured bands,
// reporting the first offending field.
func validateCreate(req CreateRequest, lim Limits) error {
	if req.Name == "" {
		return fmt.Errorf("%w: sessionName is required", ErrInvalidData)
	}
	if utf8.RuneCountInString(req.Name) > maxNameLen {
		return fmt.Errorf("%w: sessionName exceeds %d characters", ErrInvalidData, maxNameLen)
	}
	if utf8.RuneCountInString(req.Description) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidData, maxDescriptionLen)
	}
	if req.WorkMinutes < lim.MinWorkMinutes || req.WorkMinutes > lim.MaxWorkMinutes {
		return fmt.Errorf("%w: workDurationMinutes must be between %d and %d",
			ErrInvalidData, lim.MinWorkMinutes, lim.MaxWorkMinutes)
	}
	if req.ShortBreakMinutes < lim.MinShortBreakMinutes || req.ShortBreakMinutes > lim.MaxShortBreakMinutes {
		return fmt.Errorf("%w: shortBreakMinutes must be between %d and %d",
			ErrInvalidData, lim.MinShortBreakMinutes, lim.MaxShortBreakMinutes)
	}
	if req.LongBreakMinutes < lim.MinLongBreakMinutes || req.LongBreakMinutes > lim.MaxLongBreakMinutes {
		return fmt.Errorf("%w: longBreakMinutes must be between %d and %d",
			ErrInvalidData, lim.MinLongBreakMinutes, lim.MaxLongBreakMinutes)
	}
	if req.MaxParticipants < lim.MinParticipants || req.MaxParticipants > lim.MaxParticipants {
		return fmt.Errorf("%w: maxParticipants must be between %d and %d",
			ErrInvalidData, lim.MinParticipants, lim.MaxParticipants)
	}
	if len(req.TaskIDs) > MaxTasks {
		return fmt.Errorf("%w: at most %d tasks can be attached", ErrInvalidData, MaxTasks)
	}
	if hasDuplicates(req.TaskIDs) {
		return fmt.Errorf("%w: taskIds contains duplicates", ErrInvalidData)
	}
	return nil
}

// validateUpdate checks the supplied fields of a patch against the bands.
func validateUpdate(req UpdateRequest, lim Limits) error {
	if name, ok := req.Name.Get(); ok {
		if name == "" {
			return fmt.Errorf("%w: sessionName cannot be empty", ErrInvalidData)
		}
		if utf8.RuneCountInString(name) > maxNameLen {
			return fmt.Errorf("%w: sessionName exceeds %d characters", ErrInvalidData, maxNameLen)
		}
	}
	if desc, ok := req.Description.Get(); ok && utf8.RuneCountInString(desc) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidData, maxDescriptionLen)
	}
	if v, ok := req.WorkMinutes.Get(); ok && (v < lim.MinWorkMinutes || v > lim.MaxWorkMinutes) {
		return fmt.Errorf("%w: workDurationMinutes must be between %d and %d",
			ErrInvalidData, lim.MinWorkMinutes, lim.MaxWorkMinutes)
	}
	if v, ok := req.ShortBreakMinutes.Get(); ok && (v < lim.MinShortBreakMinutes || v > lim.MaxShortBreakMinutes) {
		return fmt.Errorf("%w: shortBreakMinutes must be between %d and %d",
			ErrInvalidData, lim.MinShortBreakMinutes, lim.MaxShortBreakMinutes)
	}
	if v, ok := req.LongBreakMinutes.Get(); ok && (v < lim.MinLongBreakMinutes || v > lim.MaxLongBreakMinutes) {
		return fmt.Errorf("%w: longBreakMinutes must be between %d and %d",
			ErrInvalidData, lim.MinLongBreakMinutes, lim.MaxLongBreakMinutes)
	}
	if v, ok := req.MaxParticipants.Get(); ok && (v < lim.MinParticipants || v > lim.MaxParticipants) {
		return fmt.Errorf("%w: maxParticipants must be between %d and %d",
			ErrInvalidData, lim.MinParticipants, lim.MaxParticipants)
	}
	return nil
}

// validateEnd checks the optional end-of-session payload.
func validateEnd(req EndRequest) error {
	if utf8.RuneCountInString(req.SummaryNote) > maxSummaryNoteLen {
		return fmt.Errorf("%w: summaryNote exceeds %d characters", ErrInvalidData, maxSummaryNoteLen)
	}
	return nil
}

func hasDuplicates(ids []uuid.UUID) bool {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
