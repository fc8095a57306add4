package database

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/ds124wfegd/png-diff-server/internal/pkg/storage"
	"github.com/google/uuid"
)

const ArtifactExt = ".png"

// NewArtifactRepository stores artifacts in storage. urlPrefix is the route
// the storage root is served under, e.g. "assets".
func NewArtifactRepository(storage storage.FileStorage, urlPrefix string) ArtifactRepository {
	return &fileArtifactRepository{storage: storage, urlPrefix: urlPrefix}
}

// NewArtifactName returns a fresh "<uuid v4>.png".
func NewArtifactName() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String() + ArtifactExt, nil
}

func (r *fileArtifactRepository) Save(ctx context.Context, img image.Image) (*entity.Artifact, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}

	name, err := NewArtifactName()
	if err != nil {
		return nil, fmt.Errorf("artifact name: %w", err)
	}

	if err := r.storage.Save(ctx, name, &buf); err != nil {
		return nil, fmt.Errorf("store artifact %s: %w", name, err)
	}

	bounds := img.Bounds()
	return &entity.Artifact{
		Name:   name,
		Path:   path.Join(r.urlPrefix, name),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// Exists reports whether the artifact called name is in place.
func (r *fileArtifactRepository) Exists(name string) bool {
	return r.storage.Exists(name)
}
