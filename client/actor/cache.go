package actor

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/storacha/go-candid/core/candid"
)

var HeaderCacheSize = 64

// headerCache holds the static message prefix (magic, type table, argument
// references) of each method. Headers are never modified after creation.
type headerCache struct {
	data *lru.Cache[string, []byte]
}

func (c *headerCache) Get(method string) ([]byte, bool) {
	return c.data.Get(method)
}

func (c *headerCache) Put(method string, header []byte) {
	c.data.Add(method, header)
}

// newHeaderCache creates an LRU cache of method headers. Pass a value less
// than 1 to use the default size [HeaderCacheSize].
func newHeaderCache(size int) (*headerCache, error) {
	if size <= 0 {
		size = HeaderCacheSize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating header LRU: %w", err)
	}
	return &headerCache{data: cache}, nil
}

// buildHeader encodes the header for a method's arguments. Only labels the
// arguments reach are copied from env, so the table carries nothing else.
func buildHeader(env *candid.TypeTable, args []candid.Type) ([]byte, error) {
	table := candid.NewTypeTable()
	for _, t := range args {
		if err := env.CopyLabelsInto(t, table); err != nil {
			return nil, err
		}
	}
	return candid.Header(table, args)
}
