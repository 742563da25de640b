package memory

import (
	"time"

	"mediagrid-be/pkg/ai/pipeline"

	"github.com/patrickmn/go-cache"
)

// PipelineRepository holds one live chat pipeline per open chat screen.
// The TTL bounds the transcript lifetime: an idle screen's pipeline is
// purged, matching the no-persistence contract of the chat.
type PipelineRepository struct {
	cache *cache.Cache
}

func NewPipelineRepository() *PipelineRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &PipelineRepository{cache: c}
}

func (r *PipelineRepository) Save(chatID string, p *pipeline.Pipeline) {
	r.cache.Set(chatID, p, cache.DefaultExpiration)
}

func (r *PipelineRepository) Get(chatID string) (*pipeline.Pipeline, bool) {
	if x, found := r.cache.Get(chatID); found {
		return x.(*pipeline.Pipeline), true
	}
	return nil, false
}

func (r *PipelineRepository) Delete(chatID string) {
	r.cache.Delete(chatID)
}
