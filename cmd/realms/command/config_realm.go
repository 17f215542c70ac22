package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/theUltimateZoltan/Realms/internal/realm"
)

type RealmConfig struct {
	Name string `json:"name"`
	Path string `json:"path"`
	// Cache keeps the first loaded catalog instead of re-reading the
	// documents on every request.
	Cache bool `json:"cache"`
}

func (c *RealmConfig) validate() error {
	el := errors.NewErrorList()

	if c.Name == "" {
		el.Add(fmt.Errorf("realm name is required"))
	}
	if c.Path == "" {
		el.Add(fmt.Errorf("realm path is required"))
	} else if _, err := os.Stat(c.Path); err != nil {
		el.Add(fmt.Errorf("invalid realm path %q: %w", c.Path, err))
	}

	return el.Err()
}

func (c *RealmConfig) buildLoader() *realm.Loader {
	return realm.NewLoader(realm.NewFSSource(os.DirFS(c.Path)), c.Name, c.Cache)
}
