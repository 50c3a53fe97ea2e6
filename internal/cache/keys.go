package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	UserKeyPrefix       = "user:%d"
	CircleKeyPrefix     = "circle:%s:%d"
	UserSearchKeyPrefix = "users:search:%d:%s"
)

const (
	UserTTL       = 5 * time.Minute
	CircleTTL     = 10 * time.Minute
	UserSearchTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// CircleKey keys a group or community by kind and ID.
func CircleKey(kind string, circleID uint) string {
	return fmt.Sprintf(CircleKeyPrefix, kind, circleID)
}

// UserSearchKey normalizes the query so "Ana" and " ana" share an entry.
func UserSearchKey(query string, limit int) string {
	return fmt.Sprintf(UserSearchKeyPrefix, limit, strings.ToLower(strings.TrimSpace(query)))
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateCircle(ctx context.Context, kind string, circleID uint) {
	Invalidate(ctx, CircleKey(kind, circleID))
}
