package database

import (
	"context"
	"image"

	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/storage"
)

type ArtifactRepository interface {
	Save(ctx context.Context, img image.Image) (*entity.Artifact, error)
	Exists(name string) bool
}

type fileArtifactRepository struct {
	storage   storage.FileStorage
	urlPrefix string
}
