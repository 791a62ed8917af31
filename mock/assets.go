package mock

import "github.com/fwojciec/critical"

var _ critical.AssetStore = (*AssetStore)(nil)

// AssetStore is a mock implementation of critical.AssetStore.
type AssetStore struct {
	AssetFn       func(name string) ([]byte, bool)
	UpdateAssetFn func(name string, data []byte)
	DeleteAssetFn func(name string)
	AssetNamesFn  func() []string
	HTMLAssetsFn  func() []string
}

func (s *AssetStore) Asset(name string) ([]byte, bool) {
	return s.AssetFn(name)
}

func (s *AssetStore) UpdateAsset(name string, data []byte) {
	s.UpdateAssetFn(name, data)
}

func (s *AssetStore) DeleteAsset(name string) {
	s.DeleteAssetFn(name)
}

func (s *AssetStore) AssetNames() []string {
	return s.AssetNamesFn()
}

func (s *AssetStore) HTMLAssets() []string {
	return s.HTMLAssetsFn()
}
