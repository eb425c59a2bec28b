package persistence

import (
	"context"
	"fmt"

	"catalog-sync/domain/model"

	"gorm.io/gorm"
)

type TermRepository struct{ db *gorm.DB }

func NewTermRepository(db *gorm.DB) *TermRepository {
	return &TermRepository{db: db}
}

func (r *TermRepository) ListTerms(ctx context.Context) ([]model.Term, error) {
	var terms []model.Term
	if err := r.db.WithContext(ctx).Order("id").Find(&terms).Error; err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}

func (r *TermRepository) CountTerms(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Term{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count terms: %w", err)
	}
	return n, nil
}

// UpdatePopularity sets the popularity of the term spelled exactly as term.
func (r *TermRepository) UpdatePopularity(ctx context.Context, term string, popularity int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Term{}).Where("term = ?", term).Update("popularity", popularity)
	if result.Error != nil {
		return false, fmt.Errorf("update popularity of %q: %w", term, result.Error)
	}
	return result.RowsAffected > 0, nil
}
