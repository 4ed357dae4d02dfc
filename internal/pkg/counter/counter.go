package counter

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/citymaid/citymaid/app/repository"
	"github.com/citymaid/citymaid/internal/pkg/cache"
)

const postViewsKey = "post:counters:views"

// AddPostView increments the pending view counter for a post in Redis
func AddPostView(postID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(postID), 10)
	return cache.GetClient().HIncrBy(ctx, postViewsKey, field, 1).Err()
}

// FlushViews drains the Redis hash atomically and applies batched
// increments to the posts table. Uses RENAME to a temporary key so
// in-flight increments are not lost while draining.
func FlushViews(posts repository.PostRepository) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", postViewsKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", postViewsKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	counts := make(map[uint]int64, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		counts[uint(id)] = inc
	}

	return posts.AddViews(counts)
}

// StartFlusher periodically flushes pending view counters until the
// process exits.
func StartFlusher(posts repository.PostRepository, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if err := FlushViews(posts); err != nil {
				log.Printf("view counter flush failed: %v", err)
			}
		}
	}()
}
