package service

import (
	"context"
	"sync"
	"time"

	"github.com/ds124wfegd/png-diff-server/internal/database"
	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/decoder"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/differ"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/fetcher"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/kafka"
)

type DiffService interface {
	Diff(ctx context.Context, req entity.DiffRequest) (*entity.DiffResponse, error)
	// Close waits for diff events that are still being published.
	Close() error
}

const defaultPublishTimeout = 5 * time.Second

type DiffServiceConfig struct {
	// HostInfo is prepended verbatim to the artifact path.
	HostInfo string
	Mode     string
	// PublishTimeout bounds delivery of one diff event, 5s when zero.
	PublishTimeout time.Duration
}

type diffService struct {
	fetcher  fetcher.Fetcher
	decoder  decoder.Decoder
	differ   differ.Differ
	repo     database.ArtifactRepository
	producer kafka.Producer
	config   DiffServiceConfig

	publishing sync.WaitGroup
}

func NewDiffService(
	fetcher fetcher.Fetcher,
	decoder decoder.Decoder,
	differ differ.Differ,
	repo database.ArtifactRepository,
	producer kafka.Producer,
	config DiffServiceConfig,
) DiffService {
	if producer == nil {
		producer = kafka.NewLogProducer()
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = defaultPublishTimeout
	}
	return &diffService{
		fetcher:  fetcher,
		decoder:  decoder,
		differ:   differ,
		repo:     repo,
		producer: producer,
		config:   config,
	}
}
