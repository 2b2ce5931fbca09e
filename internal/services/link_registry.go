package services

import (
	"context"
	"fmt"

	"github.com/localnerve/homespace/internal/database"
	"github.com/localnerve/homespace/internal/models"
	"github.com/localnerve/homespace/internal/types"
	"github.com/localnerve/homespace/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LinkRegistry deduplicates links by normalized URL. The metadata of a link is captured
// once, when the first caller resolves it, and never refreshed.
type LinkRegistry struct {
	DB      *gorm.DB
	Fetcher Fetcher
	Logger  *zap.Logger
}

// NewLinkRegistry creates a registry
func NewLinkRegistry(db *gorm.DB, fetcher Fetcher, log *zap.Logger) *LinkRegistry {
	return &LinkRegistry{DB: db, Fetcher: fetcher, Logger: log.Named("links")}
}

// Resolve returns the Link for rawURL, creating it on first use.
//
// The fetch runs before any write and outside any transaction; a failed fetch persists
// nothing. Two callers racing on the same new URL both fetch, one insert wins on the
// url_hash unique index and the loser returns the winner's row.
func (r *LinkRegistry) Resolve(ctx context.Context, rawURL string, user *models.User) (*models.Link, error) {
	if err := requireUser(user, "add links"); err != nil {
		return nil, err
	}

	normalized, err := utils.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	hash := models.HashURL(normalized)

	if link, err := r.findByHash(ctx, hash); err != nil || link != nil {
		if link != nil {
			linkResolveTotal.WithLabelValues("existing").Inc()
		}
		return link, err
	}

	meta, err := r.Fetcher.Fetch(ctx, normalized)
	if err != nil {
		return nil, err
	}
	metadata, err := models.NewJSON(meta)
	if err != nil {
		return nil, fmt.Errorf("encode link metadata: %w", err)
	}

	link := &models.Link{
		URL:         normalized,
		URLHash:     hash,
		Metadata:    metadata,
		CreatedByID: user.ID,
	}
	err = r.DB.WithContext(ctx).Omit(clause.Associations).Create(link).Error
	if err == nil {
		linkResolveTotal.WithLabelValues("created").Inc()
		r.Logger.Info("link created", zap.String("id", link.ID), zap.String("url", normalized))
		return link, nil
	}

	if !database.IsUniqueViolation(err) {
		return nil, fmt.Errorf("create link: %w", err)
	}

	conflict := types.Conflict(err, "Link already exists")
	winner, findErr := r.findByHash(ctx, hash)
	if findErr != nil {
		return nil, findErr
	}
	if winner == nil {
		// The unique index fired but the row is gone again; nothing sane to return
		return nil, conflict
	}
	linkResolveTotal.WithLabelValues("race").Inc()
	r.Logger.Debug("link create lost race", zap.String("url", normalized), zap.Error(conflict))
	return winner, nil
}

func (r *LinkRegistry) findByHash(ctx context.Context, hash string) (*models.Link, error) {
	var links []models.Link
	if err := r.DB.WithContext(ctx).Where("url_hash = ?", hash).Limit(1).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("find link: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}
	return &links[0], nil
}

// Get returns a link by id. Links are public.
func (r *LinkRegistry) Get(ctx context.Context, id string) (*models.Link, error) {
	var link models.Link
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if database.IsNotFound(err) {
		return nil, types.NotFound("Link not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return &link, nil
}

// Delete removes a link created by user. Widgets that referenced it keep existing with
// their link cleared.
func (r *LinkRegistry) Delete(ctx context.Context, user *models.User, id string) error {
	if err := requireUser(user, "delete links"); err != nil {
		return err
	}

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link models.Link
		err := tx.Where("id = ?", id).First(&link).Error
		if database.IsNotFound(err) {
			return types.NotFound("Link not found")
		}
		if err != nil {
			return fmt.Errorf("get link: %w", err)
		}
		if link.CreatedByID != user.ID {
			return types.PermissionDenied("You do not have permission to delete this link.")
		}

		if err := unlinkWidgets(tx, "link_id = ?", link.ID); err != nil {
			return err
		}
		if err := tx.Delete(&models.Link{}, "id = ?", link.ID).Error; err != nil {
			return fmt.Errorf("delete link: %w", err)
		}

		r.Logger.Info("link deleted", zap.String("id", link.ID), zap.String("user", user.ID))
		return nil
	})
}

// unlinkWidgets clears link_id on the widgets matching the condition.
func unlinkWidgets(tx *gorm.DB, query string, args ...interface{}) error {
	err := tx.Model(&models.Widget{}).
		Where(query, args...).
		Update("link_id", gorm.Expr("NULL")).Error
	if err != nil {
		return fmt.Errorf("clear widget links: %w", err)
	}
	return nil
}
