package auth_test

import (
	"fmt"
	"sync"
	"testing"

	auth "github.com/goliatone/go-shop-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantRegistry_Lookup(t *testing.T) {
	reg := auth.NewTenantRegistry(
		auth.TenantConfig{Domain: "Shop.Example.com.", Name: "Example", ProductType: "coffee"},
		auth.TenantConfig{Domain: "localhost", Name: "Dev"},
	)

	cfg, ok := reg.Lookup("shop.example.com")
	require.True(t, ok)
	assert.Equal(t, "Example", cfg.Name)
	assert.Equal(t, "shop.example.com", cfg.Domain)

	_, ok = reg.Lookup("SHOP.EXAMPLE.COM.")
	assert.True(t, ok)

	_, ok = reg.Lookup("other.example.com")
	assert.False(t, ok)

	assert.Equal(t, 2, reg.Len())
}

func TestTenantRegistry_IgnoresEmptyDomain(t *testing.T) {
	reg := auth.NewTenantRegistry(auth.TenantConfig{Domain: "  ", Name: "blank"})
	assert.Equal(t, 0, reg.Len())

	reg.Insert(auth.TenantConfig{Domain: ".", Name: "root"})
	assert.Equal(t, 0, reg.Len())
}

func TestTenantRegistry_ReloadReplaces(t *testing.T) {
	reg := auth.NewTenantRegistry(
		auth.TenantConfig{Domain: "a.example.com", Name: "A"},
		auth.TenantConfig{Domain: "b.example.com", Name: "B"},
	)

	reg.Reload([]auth.TenantConfig{
		{Domain: "b.example.com", Name: "B2"},
		{Domain: "c.example.com", Name: "C"},
		{Domain: "c.example.com", Name: "C2"},
	})

	_, ok := reg.Lookup("a.example.com")
	assert.False(t, ok, "domains missing from the reload stop resolving")

	b, ok := reg.Lookup("b.example.com")
	require.True(t, ok)
	assert.Equal(t, "B2", b.Name)

	c, ok := reg.Lookup("c.example.com")
	require.True(t, ok)
	assert.Equal(t, "C2", c.Name, "last duplicate wins")

	assert.Equal(t, 2, reg.Len())
}

func TestTenantRegistry_InsertAndSnapshot(t *testing.T) {
	reg := auth.NewTenantRegistry()
	reg.Insert(auth.TenantConfig{Domain: "z.example.com", Name: "Z"})
	reg.Insert(auth.TenantConfig{Domain: "a.example.com", Name: "A"})
	reg.Insert(auth.TenantConfig{Domain: "A.example.com", Name: "A2"})

	snap := reg.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a.example.com", snap[0].Domain)
	assert.Equal(t, "A2", snap[0].Name)
	assert.Equal(t, "z.example.com", snap[1].Domain)

	snap[0].Name = "mutated"
	cfg, _ := reg.Lookup("a.example.com")
	assert.Equal(t, "A2", cfg.Name, "snapshot is a copy")
}

func TestTenantRegistry_Resolve(t *testing.T) {
	reg := auth.NewTenantRegistry(auth.TenantConfig{Domain: "shop.example.com", Name: "Example"})

	hit := reg.Resolve("Shop.Example.com")
	assert.True(t, hit.Found())
	assert.Equal(t, "shop.example.com", hit.Host)
	assert.Equal(t, "Example", hit.Config.Name)

	miss := reg.Resolve("missing.example.com")
	assert.False(t, miss.Found())
	assert.Equal(t, "missing.example.com", miss.Host)
}

// Readers racing a writer must only ever see a complete old or new mapping.
func TestTenantRegistry_ConcurrentReload(t *testing.T) {
	gen := func(tag string) []auth.TenantConfig {
		out := make([]auth.TenantConfig, 0, 50)
		for i := 0; i < 50; i++ {
			out = append(out, auth.TenantConfig{
				Domain: fmt.Sprintf("shop%d.example.com", i),
				Name:   tag,
			})
		}
		return out
	}

	reg := auth.NewTenantRegistry(gen("old")...)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				cfg, ok := reg.Lookup("shop7.example.com")
				if !ok || (cfg.Name != "old" && cfg.Name != "new") {
					t.Errorf("torn read: %+v %v", cfg, ok)
					return
				}
				if n := reg.Len(); n != 50 {
					t.Errorf("unexpected size %d", n)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			reg.Reload(gen("new"))
		} else {
			reg.Reload(gen("old"))
		}
	}
	close(stop)
	wg.Wait()
}
