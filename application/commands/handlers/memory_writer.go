package handlers

import (
	"context"

	"keepwise/application/ports"
	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"
	pkgerrors "keepwise/pkg/errors"
	"keepwise/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	operationCreate = "create"
	operationUpdate = "update"
)

// Metrics receives business counters from the command handlers
type Metrics interface {
	RecordMemorySaved(kind, operation string)
	RecordMemoryDeleted(kind string)
}

type noopMetrics struct{}

func (noopMetrics) RecordMemorySaved(string, string) {}
func (noopMetrics) RecordMemoryDeleted(string)       {}

// memoryWriter holds what every memory mutation needs: the transaction
// boundary, post-commit event publication and bookkeeping.
type memoryWriter struct {
	uow       ports.UnitOfWork
	publisher ports.EventPublisher
	metrics   Metrics
	logger    *zap.Logger
}

func newMemoryWriter(uow ports.UnitOfWork, publisher ports.EventPublisher, metrics Metrics, logger *zap.Logger) *memoryWriter {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &memoryWriter{uow: uow, publisher: publisher, metrics: metrics, logger: logger}
}

// savePlan describes one upsert. create builds a fresh memory; revise
// applies the payload to an existing one.
type savePlan struct {
	kind     valueobjects.MemoryKind
	memoryID string
	ownerID  string
	category string
	tags     string
	create   func() (*entities.Memory, error)
	revise   func(m *entities.Memory) error
}

func (w *memoryWriter) save(ctx context.Context, plan savePlan) (*entities.Memory, error) {
	operation := operationCreate
	if plan.memoryID != "" {
		operation = operationUpdate
	}

	ctx, span := observability.StartSpan(ctx, "memory.save",
		attribute.String("memory.kind", plan.kind.String()),
		attribute.String("memory.operation", operation),
	)
	defer span.End()

	// entity rules run before the transaction opens
	var fresh *entities.Memory
	if operation == operationCreate {
		m, err := plan.create()
		if err != nil {
			return nil, err
		}
		fresh = m
	}

	var saved *entities.Memory
	err := w.uow.Within(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if operation == operationCreate {
			if err := attachReferences(ctx, repos, fresh, plan.category, plan.tags); err != nil {
				return err
			}
			if err := repos.Memories().Create(ctx, fresh); err != nil {
				return err
			}
			saved = fresh
			return nil
		}

		existing, err := loadOwned(ctx, repos, plan.memoryID, plan.ownerID, plan.kind)
		if err != nil {
			return err
		}
		if err := plan.revise(existing); err != nil {
			return err
		}
		if err := attachReferences(ctx, repos, existing, plan.category, plan.tags); err != nil {
			return err
		}
		if err := repos.Memories().Update(ctx, existing); err != nil {
			return err
		}
		saved = existing
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	w.metrics.RecordMemorySaved(plan.kind.String(), operation)
	w.publishEvents(ctx, saved)

	w.logger.Info("Memory saved",
		zap.String("memoryID", saved.ID().String()),
		zap.String("ownerID", saved.OwnerID()),
		zap.String("kind", saved.Kind().String()),
		zap.String("operation", operation),
		zap.Int("tags", len(saved.Tags())),
	)

	return saved, nil
}

func (w *memoryWriter) delete(ctx context.Context, memoryID, ownerID string, kind valueobjects.MemoryKind) error {
	ctx, span := observability.StartSpan(ctx, "memory.delete",
		attribute.String("memory.kind", kind.String()),
	)
	defer span.End()

	var deleted *entities.Memory
	err := w.uow.Within(ctx, func(ctx context.Context, repos ports.Repositories) error {
		m, err := loadOwned(ctx, repos, memoryID, ownerID, kind)
		if err != nil {
			return err
		}
		if err := repos.Memories().Delete(ctx, m.ID()); err != nil {
			return err
		}
		deleted = m
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return err
	}

	deleted.MarkDeleted()
	w.metrics.RecordMemoryDeleted(kind.String())
	w.publishEvents(ctx, deleted)

	w.logger.Info("Memory deleted",
		zap.String("memoryID", memoryID),
		zap.String("ownerID", ownerID),
		zap.String("kind", kind.String()),
	)
	return nil
}

// loadOwned fetches a memory for mutation. Missing, foreign and wrong-kind
// memories are all reported as not found.
func loadOwned(ctx context.Context, repos ports.Repositories, rawID, ownerID string, kind valueobjects.MemoryKind) (*entities.Memory, error) {
	id, err := valueobjects.NewMemoryIDFromString(rawID)
	if err != nil {
		return nil, pkgerrors.NewNotFoundError("memory")
	}

	m, err := repos.Memories().GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewNotFoundError("memory")
		}
		return nil, err
	}

	if !m.OwnedBy(ownerID) || m.Kind() != kind {
		return nil, pkgerrors.NewNotFoundError("memory")
	}
	return m, nil
}

// attachReferences resolves the category and reconciles the tags, then
// replaces both on m.
func attachReferences(ctx context.Context, repos ports.Repositories, m *entities.Memory, categoryName, rawTags string) error {
	category, err := repos.Categories().Resolve(ctx, valueobjects.NormalizeCategoryName(categoryName), m.OwnerID())
	if err != nil {
		return err
	}
	if err := m.AssignCategory(category); err != nil {
		return err
	}

	tags, err := repos.Tags().Reconcile(ctx, valueobjects.ParseTagNames(rawTags))
	if err != nil {
		return err
	}
	m.ReplaceTags(tags)
	return nil
}

// publishEvents sends pending events after commit. Publication is best
// effort; the write already succeeded.
func (w *memoryWriter) publishEvents(ctx context.Context, m *entities.Memory) {
	pending := m.GetUncommittedEvents()
	if len(pending) == 0 || w.publisher == nil {
		return
	}

	if err := w.publisher.PublishBatch(ctx, pending); err != nil {
		w.logger.Warn("Failed to publish memory events",
			zap.String("memoryID", m.ID().String()),
			zap.Int("events", len(pending)),
			zap.Error(err),
		)
		return
	}
	m.MarkEventsAsCommitted()
}
