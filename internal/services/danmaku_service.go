package services

import (
	"github.com/imi6/dandan/internal/danmaku"
	"github.com/imi6/dandan/internal/providers"
)

type DanmakuServiceInterface interface {
	ConvertBatch(comments []danmaku.RawComment, target danmaku.Format) ([]any, error)
	ParseXML(content string) ([]danmaku.RawComment, error)
}

// DanmakuService wraps the pure conversion core with drop logging and
// metrics. Per-comment failures stay internal: danmaku feeds are
// crowd-submitted and one bad comment must not fail a batch.
type DanmakuService struct {
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewDanmakuService(logger providers.Logger, metrics providers.MetricsProviderInterface) DanmakuServiceInterface {
	return &DanmakuService{logger: logger, metrics: metrics}
}

func (ds *DanmakuService) ConvertBatch(comments []danmaku.RawComment, target danmaku.Format) ([]any, error) {
	converted, dropped, err := danmaku.ConvertBatch(comments, target)
	if err != nil {
		return nil, err
	}

	ds.metrics.AddCommentsConverted(string(target), len(converted))
	if dropped > 0 {
		ds.metrics.AddCommentsDropped(string(target), dropped)
		ds.logger.Warnf(providers.TypePost, "Dropped %d of %d comments during %s conversion", dropped, len(comments), target)
	}
	return converted, nil
}

func (ds *DanmakuService) ParseXML(content string) ([]danmaku.RawComment, error) {
	return danmaku.ParseBilibiliXML(content)
}
