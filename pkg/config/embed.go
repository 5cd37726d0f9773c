package config

import (
	_ "embed"
	"errors"

	"github.com/arthur-debert/isobundle/pkg/types"
)

//go:embed embedded/client.toml
var clientDefaults []byte

//go:embed embedded/server.toml
var serverDefaults []byte

// DefaultsContent returns the embedded default configuration of a target
func DefaultsContent(target types.BuildTarget) []byte {
	if target.IsServer() {
		return serverDefaults
	}
	return clientDefaults
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}
