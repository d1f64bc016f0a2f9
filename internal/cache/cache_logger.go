package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and logs instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and logs instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateQuestionCache drops cached questions, topics and stats after a write.
// Passing no ids only drops the derived lists.
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionIDs ...uint) {
	if len(questionIDs) > 0 {
		keys := make([]string, len(questionIDs))
		for i, id := range questionIDs {
			keys[i] = fmt.Sprintf("id:%d", id)
		}
		SafeDelete(ctx, cm.Question, keys...)
	}
	SafeInvalidatePattern(ctx, cm.Topic, "*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}

// InvalidateAllQuestions drops every question derived entry.
func InvalidateAllQuestions(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Question, "*")
	SafeInvalidatePattern(ctx, cm.Topic, "*")
	SafeInvalidatePattern(ctx, cm.Stats, "*")
}

// InvalidateTemplateCache drops the template list.
func InvalidateTemplateCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Template, "*")
}
