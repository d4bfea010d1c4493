package commands

import (
	"keepwise/pkg/utils"
)

// DeleteMemoryCommand removes a memory of the given kind owned by OwnerID
type DeleteMemoryCommand struct {
	MemoryID string `json:"memoryId" validate:"required,uuid"`
	OwnerID  string `json:"ownerId" validate:"required"`
	Kind     string `json:"type" validate:"required,oneof=LINK IDEA"`
}

// Validate validates the DeleteMemoryCommand
func (c DeleteMemoryCommand) Validate() error {
	return utils.ValidateStruct(c)
}
