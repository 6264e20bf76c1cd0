package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
)

// PaperRepository stores the papers sessions are created from.
type PaperRepository interface {
	Save(ctx context.Context, paper *models.Paper) error
	GetByID(ctx context.Context, id string) (*models.Paper, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}
