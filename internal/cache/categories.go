package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ustatop/ustatop-api/internal/models"
)

const (
	categoriesKey = "catalog:categories"
	categoriesTTL = 5 * time.Minute
)

// Categories is a read-mostly redis cache in front of the category
// catalog. Misses and redis outages fall through to postgres, so the
// cache is never load-bearing.
type Categories struct {
	rdb *redis.Client
}

func NewCategories(rdb *redis.Client) *Categories {
	return &Categories{rdb: rdb}
}

func (c *Categories) Get(ctx context.Context) ([]models.Category, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		return nil, false
	}

	var cats []models.Category
	if err := json.Unmarshal(raw, &cats); err != nil {
		return nil, false
	}

	return cats, true
}

func (c *Categories) Set(ctx context.Context, cats []models.Category) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(cats)
	if err != nil {
		return
	}

	c.rdb.Set(ctx, categoriesKey, raw, categoriesTTL)
}

// Invalidate drops the cached catalog after any category write.
func (c *Categories) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}

	c.rdb.Del(ctx, categoriesKey)
}
