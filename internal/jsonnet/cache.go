package jsonnet

import (
	"strconv"
	"strings"
	"sync"

	jsonnet "github.com/google/go-jsonnet"
)

// Cache keeps one VM per import path and injected-code key set, so repeated
// evaluations of environments sharing libraries reuse parsed imports. A
// Cache is meant to be owned by a single worker.
type Cache struct {
	mu  sync.Mutex
	vms map[string]*jsonnet.VM
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{vms: make(map[string]*jsonnet.VM)}
}

// Len returns the number of cached VMs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vms)
}

// vm returns the VM for opts, creating it on first use. Injected code is
// applied on every call; the key covers the injected names so a reused VM
// never carries values for names the caller did not set.
func (c *Cache) vm(opts Opts) *jsonnet.VM {
	key := cacheKey(opts)

	c.mu.Lock()
	defer c.mu.Unlock()

	vm, ok := c.vms[key]
	if !ok {
		vm = newVM(opts)
		c.vms[key] = vm
		return vm
	}
	inject(vm, opts)
	return vm
}

func cacheKey(opts Opts) string {
	var b strings.Builder
	b.WriteString(strings.Join(opts.ImportPaths, ":"))
	b.WriteString("|ext=")
	b.WriteString(strings.Join(opts.ExtCode.Keys(), ","))
	b.WriteString("|tla=")
	b.WriteString(strings.Join(opts.TLACode.Keys(), ","))
	b.WriteString("|stack=")
	b.WriteString(strconv.Itoa(opts.MaxStack))
	return b.String()
}
