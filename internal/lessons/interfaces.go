package lessons

import "context"

type Loader interface {
	Load(ctx context.Context, path string) (*Catalog, error)
	LoadDefault() (*Catalog, error)
}
