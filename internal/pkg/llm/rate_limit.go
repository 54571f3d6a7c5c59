package llm

import (
	"golang.org/x/sync/semaphore"
)

const defaultTextWeight = int64(5)

// newTextSem 限制同时进行的文本生成请求数
func newTextSem(weight int64) *semaphore.Weighted {
	if weight <= 0 {
		weight = defaultTextWeight
	}
	return semaphore.NewWeighted(weight)
}
