package repository

import (
	"context"
	"time"

	"github.com/diagnosis/villa-bookings/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository interface {
	Insert(ctx context.Context, rec *domain.AuditRecord) error
}

type auditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Insert(ctx context.Context, rec *domain.AuditRecord) error {
	const q = `INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, details)
VALUES ($1,$2,$3,$4,$5,$6)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q, rec.ID, rec.ActorID, rec.Action, rec.EntityType, rec.EntityID, rec.Details)
	return err
}
