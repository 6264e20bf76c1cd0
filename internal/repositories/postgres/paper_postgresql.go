package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/exam-session-engine/internal/models"
	"github.com/SAP-F-2025/exam-session-engine/internal/repositories"
)

type PaperPostgreSQL struct {
	db *gorm.DB
}

func NewPaperPostgreSQL(db *gorm.DB) repositories.PaperRepository {
	return &PaperPostgreSQL{db: db}
}

func (p PaperPostgreSQL) Save(ctx context.Context, paper *models.Paper) error {
	record, err := models.NewPaperRecord(paper)
	if err != nil {
		return err
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "subject", "document", "updated_at"}),
		}).
		Create(record).Error
}

func (p PaperPostgreSQL) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	var record models.PaperRecord
	if err := p.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, notFound(err)
	}
	return record.Paper()
}

func (p PaperPostgreSQL) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := p.db.WithContext(ctx).Model(&models.PaperRecord{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (p PaperPostgreSQL) Delete(ctx context.Context, id string) error {
	result := p.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PaperRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
