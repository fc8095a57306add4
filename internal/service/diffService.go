package service

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Diff fetches both inputs, decodes them, runs the differ and stores the
// result. It either returns the url of exactly one new artifact or a
// *entity.DiffError, in which case nothing was written.
func (s *diffService) Diff(ctx context.Context, req entity.DiffRequest) (*entity.DiffResponse, error) {
	start := time.Now()
	entry := logrus.WithFields(logrus.Fields{
		"before_png": req.BeforePNG,
		"after_png":  req.AfterPNG,
	})

	var beforeRaw, afterRaw []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		beforeRaw, err = s.fetch(gctx, "fetch before", req.BeforePNG)
		return err
	})
	g.Go(func() (err error) {
		afterRaw, err = s.fetch(gctx, "fetch after", req.AfterPNG)
		return err
	})
	if err := g.Wait(); err != nil {
		entry.WithError(err).Error("diff failed")
		return nil, err
	}

	before, err := s.decode("decode before", beforeRaw)
	if err != nil {
		entry.WithError(err).Error("diff failed")
		return nil, err
	}

	after, err := s.decode("decode after", afterRaw)
	if err != nil {
		entry.WithError(err).Error("diff failed")
		return nil, err
	}

	result, err := s.differ.Diff(before, after)
	if err != nil {
		err = entity.Internal("diff", err)
		entry.WithError(err).Error("diff failed")
		return nil, err
	}

	artifact, err := s.repo.Save(ctx, result)
	if err != nil {
		err = entity.Internal("persist", err)
		entry.WithError(err).Error("diff failed")
		return nil, err
	}
	if !s.repo.Exists(artifact.Name) {
		err = entity.Internal("persist", fmt.Errorf("artifact %s missing after save", artifact.Name))
		entry.WithError(err).Error("diff failed")
		return nil, err
	}

	resultURL := s.config.HostInfo + artifact.Path

	entry.WithFields(logrus.Fields{
		"artifact":   artifact.Name,
		"result_url": resultURL,
		"width":      artifact.Width,
		"height":     artifact.Height,
		"duration":   time.Since(start),
	}).Info("generated diff bitmap")

	s.publish(ctx, req, artifact, resultURL)

	return &entity.DiffResponse{ResultURL: resultURL}, nil
}

func (s *diffService) fetch(ctx context.Context, op, url string) ([]byte, error) {
	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, entity.InputNotFound(op, err)
	}
	return data, nil
}

func (s *diffService) decode(op string, data []byte) (image.Image, error) {
	img, err := s.decoder.Decode(data)
	if err != nil {
		return nil, entity.UnsupportedFormat(op, err)
	}
	return img, nil
}

// publish announces a stored artifact in the background. The artifact exists
// at this point, so a failure is logged and the request still succeeds.
func (s *diffService) publish(ctx context.Context, req entity.DiffRequest, artifact *entity.Artifact, resultURL string) {
	event := entity.DiffCreatedEvent{
		Artifact:  artifact.Name,
		ResultURL: resultURL,
		BeforePNG: req.BeforePNG,
		AfterPNG:  req.AfterPNG,
		Width:     artifact.Width,
		Height:    artifact.Height,
		Mode:      s.config.Mode,
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PublishTimeout)
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		defer cancel()

		if err := s.producer.SendMessage(ctx, artifact.Name, event); err != nil {
			logrus.WithError(err).WithField("artifact", artifact.Name).Warn("failed to publish diff event")
		}
	}()
}

func (s *diffService) Close() error {
	s.publishing.Wait()
	return nil
}
