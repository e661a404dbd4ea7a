package config

import "fmt"

// CacheKeyStruct namespaces all Redis key builders.
type CacheKeyStruct struct{}

// CacheKey is the shared key builder instance.
var CacheKey = &CacheKeyStruct{}

// ExamPaperKey returns the cache key for an exam's student-facing question
// payload (answer keys are never cached under this key).
func (r *CacheKeyStruct) ExamPaperKey(examID int) string {
	return fmt.Sprintf("exam:%d:paper", examID)
}
