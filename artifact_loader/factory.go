package artifact_loader

import (
	"context"

	"github.com/turbot/tailpipe-log-summary/types"
)

// Factory is a global ArtifactLoaderFactory instance
var Factory = newArtifactLoaderFactory()

type ArtifactLoaderFactory struct {
	// loaders in priority order; the FileLoader fallback is always last
	artifactLoaders []Loader
	fallback        Loader
}

func newArtifactLoaderFactory() ArtifactLoaderFactory {
	return ArtifactLoaderFactory{
		fallback: NewFileLoader(),
	}
}

func (b *ArtifactLoaderFactory) RegisterArtifactLoaders(loaderFuncs ...func() Loader) {
	for _, ctor := range loaderFuncs {
		b.artifactLoaders = append(b.artifactLoaders, ctor())
	}
}

// LoaderFor returns the first registered loader which can load the object
func (b *ArtifactLoaderFactory) LoaderFor(obj types.RawObject) Loader {
	for _, l := range b.artifactLoaders {
		if l.CanLoad(obj) {
			return l
		}
	}
	return b.fallback
}

// Load decodes the object with the first loader which can handle it
func Load(ctx context.Context, obj types.RawObject) (types.RawObject, error) {
	return Factory.LoaderFor(obj).Load(ctx, obj)
}
