package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agendora/scheduling-core/internal/model"
)

type AppointmentRepository interface {
	// Создать запись.
	Create(ctx context.Context, appt *model.Appointment) error
	// Найти запись по ID в рамках арендатора.
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.Appointment, error)
	// Кандидаты на конфликт: записи специалиста (плюс блокировки «на всех»)
	// пересекающие окно [from, to). Только арендатор tenantID.
	ListConflictCandidates(ctx context.Context, tenantID, professionalID string, from, to time.Time) ([]model.Appointment, error)
	// Записи, ожидающие напоминаний: не уведомлённые, не блокировки,
	// стартующие в окне [now-30м, now+28ч). Сканируются все арендаторы.
	ListPendingReminders(ctx context.Context, now time.Time) ([]model.Appointment, error)
	// Все окказии серии в порядке RecurrenceOrder.
	ListSeries(ctx context.Context, tenantID string, recurrenceID uuid.UUID) ([]model.Appointment, error)
	// Записи арендатора за период, с пагинацией.
	ListByTenantRange(ctx context.Context, tenantID string, from, to time.Time, limit, offset int) ([]model.Appointment, int64, error)
	// Обновить запись целиком.
	Update(ctx context.Context, appt *model.Appointment) error
	// Перевести запись в статус.
	UpdateStatus(ctx context.Context, tenantID string, id uuid.UUID, status model.AppointmentStatus) error
	// Жёсткое удаление: только для блокировок.
	DeleteBlock(ctx context.Context, tenantID string, id uuid.UUID) error
	// Репозиторий внутри транзакции tx.
	WithTx(tx *gorm.DB) AppointmentRepository
	// Как ListConflictCandidates, но под row-level блокировкой (внутри транзакции).
	ListConflictCandidatesForUpdate(ctx context.Context, tenantID, professionalID string, from, to time.Time) ([]model.Appointment, error)
	// Перечитать запись под row-level блокировкой (внутри транзакции).
	LockForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.Appointment, error)
	// Сериализовать писателей одного дня арендатора до конца транзакции.
	// Берётся до чтения кандидатов на конфликт (внутри транзакции).
	AcquireSlotLock(ctx context.Context, tenantID string, day time.Time) error
}

// Реализация на GORM.
type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

// WithTx возвращает репозиторий, работающий внутри транзакции tx.
func (r *GormAppointmentRepository) WithTx(tx *gorm.DB) AppointmentRepository {
	return &GormAppointmentRepository{db: tx}
}

func (r *GormAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	return r.db.WithContext(ctx).Create(appt).Error
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.WithContext(ctx).
		First(&a, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) ListConflictCandidates(
	ctx context.Context,
	tenantID, professionalID string,
	from, to time.Time,
) ([]model.Appointment, error) {
	var appts []model.Appointment

	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("tenant_id = ?", tenantID).
		Where("starts_at < ? AND ends_at > ?", to, from).
		Where("status IN ?", []model.AppointmentStatus{
			model.AppointmentStatusScheduled,
			model.AppointmentStatusConfirmed,
			model.AppointmentStatusBlock,
		})

	// Для проверки «на всех» нужны записи всех специалистов.
	if professionalID != model.ProfessionalAll {
		q = q.Where("professional_id IN ?", []string{professionalID, model.ProfessionalAll})
	}

	if err := q.Order("starts_at ASC").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *GormAppointmentRepository) ListConflictCandidatesForUpdate(
	ctx context.Context,
	tenantID, professionalID string,
	from, to time.Time,
) ([]model.Appointment, error) {
	locked := &GormAppointmentRepository{
		db: r.db.Clauses(clause.Locking{Strength: "UPDATE"}),
	}
	return locked.ListConflictCandidates(ctx, tenantID, professionalID, from, to)
}

func (r *GormAppointmentRepository) ListPendingReminders(ctx context.Context, now time.Time) ([]model.Appointment, error) {
	var appts []model.Appointment

	from := now.Add(-30 * time.Minute)
	to := now.Add(28 * time.Hour)

	if err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("notified = ?", false).
		Where("is_block = ?", false).
		Where("status IN ?", []model.AppointmentStatus{
			model.AppointmentStatusScheduled,
			model.AppointmentStatusConfirmed,
		}).
		Where("starts_at >= ? AND starts_at <= ?", from, to).
		Order("starts_at ASC").
		Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *GormAppointmentRepository) ListSeries(ctx context.Context, tenantID string, recurrenceID uuid.UUID) ([]model.Appointment, error) {
	var appts []model.Appointment
	if err := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("tenant_id = ? AND recurrence_id = ?", tenantID, recurrenceID).
		Order("recurrence_order ASC").
		Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *GormAppointmentRepository) ListByTenantRange(
	ctx context.Context,
	tenantID string,
	from, to time.Time,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	var (
		appts []model.Appointment
		total int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("tenant_id = ?", tenantID).
		Where("starts_at >= ? AND starts_at < ?", from, to)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("starts_at ASC").Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}

func (r *GormAppointmentRepository) Update(ctx context.Context, appt *model.Appointment) error {
	return r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("tenant_id = ? AND id = ?", appt.TenantID, appt.ID).
		Select("*").
		Omit("created_at").
		Updates(appt).
		Error
}

func (r *GormAppointmentRepository) UpdateStatus(ctx context.Context, tenantID string, id uuid.UUID, status model.AppointmentStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("status", status).
		Error
}

func (r *GormAppointmentRepository) DeleteBlock(ctx context.Context, tenantID string, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_block = ?", tenantID, true).
		Delete(&model.Appointment{}, "id = ?", id).
		Error
}

// AcquireSlotLock берёт advisory-блокировку на пару (арендатор, день) до
// конца транзакции. SELECT ... FOR UPDATE не видит конкурентных вставок в
// пустое окно, поэтому писатели одного дня сериализуются явно, до чтения
// кандидатов. Вне postgres — no-op: sqlite пускает писателей по одному сам.
func (r *GormAppointmentRepository) AcquireSlotLock(ctx context.Context, tenantID string, day time.Time) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	key := fmt.Sprintf("%s:%s", tenantID, day.UTC().Format("2006-01-02"))
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).
		Error
}

// LockForUpdate перечитывает запись под row-level блокировкой.
// Вызывается только внутри транзакции.
func (r *GormAppointmentRepository) LockForUpdate(ctx context.Context, tenantID string, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "tenant_id = ? AND id = ?", tenantID, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
