package scheduling

import (
	"github.com/google/uuid"

	"github.com/agendora/scheduling-core/internal/calendar"
	"github.com/agendora/scheduling-core/internal/model"
)

// Proposal — предлагаемая запись для проверки на конфликты.
// Для блокировки «на всю компанию» ProfessionalID = model.ProfessionalAll.
type Proposal struct {
	TenantID       string
	ProfessionalID string
	Range          calendar.TimeRange
	// Собственная серия записи: члены одной серии друг с другом не конфликтуют.
	RecurrenceID *uuid.UUID
}

// CheckConflict — чистая функция решения «можно ли бронировать».
// Возвращает nil (можно), ErrOutsideWorkingHours, либо *ConflictError
// с идентификатором записи-виновника (детерминированно: наименьший StartsAt).
// Запись existing предполагается уже отфильтрованной по арендатору.
func CheckConflict(p Proposal, existing []model.Appointment, hours calendar.WorkingHours) error {
	if p.TenantID == "" || p.ProfessionalID == "" {
		return ErrInvalidInput
	}
	if _, err := calendar.NewTimeRange(p.Range.Start, p.Range.End); err != nil {
		return ErrInvalidInput
	}
	if !hours.Covers(p.Range) {
		return ErrOutsideWorkingHours
	}

	var conflict *model.Appointment
	for i := range existing {
		cand := &existing[i]

		if cand.TenantID != p.TenantID {
			// изоляция арендаторов: чужие записи не рассматриваем вовсе
			continue
		}
		if !cand.OccupiesSlot() {
			continue
		}
		if !professionalsCollide(p.ProfessionalID, cand) {
			continue
		}
		if p.RecurrenceID != nil && cand.RecurrenceID != nil && *cand.RecurrenceID == *p.RecurrenceID {
			continue
		}
		if !calendar.Overlaps(p.Range, cand.Range()) {
			continue
		}
		if conflict == nil || cand.StartsAt.Before(conflict.StartsAt) {
			conflict = cand
		}
	}

	if conflict != nil {
		return &ConflictError{ConflictingID: conflict.ID}
	}
	return nil
}

// professionalsCollide: блокировка «на всех» бьётся с любым специалистом,
// предложение «на всех» — с любой существующей записью, иначе
// конфликтуют только записи одного специалиста.
func professionalsCollide(proposedProfessional string, cand *model.Appointment) bool {
	if cand.BlocksAllProfessionals() {
		return true
	}
	if proposedProfessional == model.ProfessionalAll {
		return true
	}
	return cand.ProfessionalID == proposedProfessional
}
