package handlers

import (
	"context"

	"keepwise/application/commands"
	"keepwise/application/ports"
	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"

	"go.uber.org/zap"
)

// SaveLinkHandler creates and updates LINK memories
type SaveLinkHandler struct {
	writer *memoryWriter
}

// NewSaveLinkHandler creates a new handler instance
func NewSaveLinkHandler(uow ports.UnitOfWork, publisher ports.EventPublisher, metrics Metrics, logger *zap.Logger) *SaveLinkHandler {
	return &SaveLinkHandler{writer: newMemoryWriter(uow, publisher, metrics, logger)}
}

// Handle executes the save link command
func (h *SaveLinkHandler) Handle(ctx context.Context, cmd commands.SaveLinkCommand) (*entities.Memory, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	priority, err := valueobjects.ParsePriority(cmd.Priority)
	if err != nil {
		return nil, err
	}

	return h.writer.save(ctx, savePlan{
		kind:     valueobjects.KindLink,
		memoryID: cmd.MemoryID,
		ownerID:  cmd.OwnerID,
		category: cmd.Category,
		tags:     cmd.Tags,
		create: func() (*entities.Memory, error) {
			return entities.NewLinkMemory(cmd.OwnerID, cmd.Title, priority, cmd.Detail())
		},
		revise: func(m *entities.Memory) error {
			return m.ReviseLink(cmd.Title, priority, cmd.Detail())
		},
	})
}

// SaveIdeaHandler creates and updates IDEA memories
type SaveIdeaHandler struct {
	writer *memoryWriter
}

// NewSaveIdeaHandler creates a new handler instance
func NewSaveIdeaHandler(uow ports.UnitOfWork, publisher ports.EventPublisher, metrics Metrics, logger *zap.Logger) *SaveIdeaHandler {
	return &SaveIdeaHandler{writer: newMemoryWriter(uow, publisher, metrics, logger)}
}

// Handle executes the save idea command
func (h *SaveIdeaHandler) Handle(ctx context.Context, cmd commands.SaveIdeaCommand) (*entities.Memory, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	priority, err := valueobjects.ParsePriority(cmd.Priority)
	if err != nil {
		return nil, err
	}

	return h.writer.save(ctx, savePlan{
		kind:     valueobjects.KindIdea,
		memoryID: cmd.MemoryID,
		ownerID:  cmd.OwnerID,
		category: cmd.Category,
		tags:     cmd.Tags,
		create: func() (*entities.Memory, error) {
			idea := entities.IdeaDetail{Content: cmd.Content}
			if files := cmd.AttachmentList(); files != nil {
				idea.Attachments = *files
			}
			return entities.NewIdeaMemory(cmd.OwnerID, cmd.Title, priority, idea)
		},
		revise: func(m *entities.Memory) error {
			return m.ReviseIdea(cmd.Title, priority, cmd.Content, cmd.AttachmentList())
		},
	})
}

// DeleteMemoryHandler handles memory deletion commands
type DeleteMemoryHandler struct {
	writer *memoryWriter
}

// NewDeleteMemoryHandler creates a new delete memory handler
func NewDeleteMemoryHandler(uow ports.UnitOfWork, publisher ports.EventPublisher, metrics Metrics, logger *zap.Logger) *DeleteMemoryHandler {
	return &DeleteMemoryHandler{writer: newMemoryWriter(uow, publisher, metrics, logger)}
}

// Handle executes the delete memory command
func (h *DeleteMemoryHandler) Handle(ctx context.Context, cmd commands.DeleteMemoryCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	kind, err := valueobjects.ParseMemoryKind(cmd.Kind)
	if err != nil {
		return err
	}

	return h.writer.delete(ctx, cmd.MemoryID, cmd.OwnerID, kind)
}
