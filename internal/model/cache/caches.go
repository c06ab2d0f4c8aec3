package cache

import (
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/valueprobe/backend/internal/model"
	"github.com/valueprobe/backend/internal/pkg/cache"
)

type Flusher func() error

var (
	// AnalysisByRunID caches the latest analysis record per run. Forced
	// refreshes (the poller's cache-bypass mode) go around this cache and
	// repopulate it on the way back.
	AnalysisByRunID *cache.Set[model.AnalysisResult]

	once sync.Once

	SetMap map[string]Flusher
)

func Initialize(client *redis.Client) {
	once.Do(func() {
		initializeCaches(client)
	})
}

func Delete(name string) error {
	if flusher, ok := SetMap[name]; ok {
		return flusher()
	}
	return nil
}

func initializeCaches(client *redis.Client) {
	SetMap = make(map[string]Flusher)

	// analysis
	AnalysisByRunID = cache.NewSet[model.AnalysisResult](client, "analysis#runId")

	SetMap["analysis#runId"] = AnalysisByRunID.Flush
}
