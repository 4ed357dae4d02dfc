package repository

import (
	"github.com/citymaid/citymaid/app/models"
	"gorm.io/gorm"
)

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a post repository backed by GORM.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

func (r *postRepository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetByUUID(uuid string) (*models.Post, error) {
	var post models.Post
	if err := r.db.Where("uuid = ?", uuid).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(post *models.Post) error {
	return r.db.Save(post).Error
}

func (r *postRepository) UpdateStatus(id uint, status string) error {
	res := r.db.Model(&models.Post{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postRepository) Delete(id uint) error {
	return r.db.Delete(&models.Post{}, id).Error
}

// ListApproved returns publicly visible posts, homepage-promoted ones first.
func (r *postRepository) ListApproved(city string, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.Where("status = ?", models.PostStatusApproved)
	if city != "" {
		q = q.Where("city = ?", city)
	}
	err := q.Order("homepage_payment_status = 'approved' DESC").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListByStatus(status string, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	q := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Count(&count).Error
	return count, err
}

func (r *postRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// AddViews applies batched view-count increments drained from the cache.
func (r *postRepository) AddViews(counts map[uint]int64) error {
	if len(counts) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for id, n := range counts {
			if n == 0 {
				continue
			}
			err := tx.Model(&models.Post{}).Where("id = ?", id).
				Update("view_count", gorm.Expr("view_count + ?", n)).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
