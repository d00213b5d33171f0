package processor

import (
	"sort"
	"sync"
)

var (
	registryLock         sync.Mutex
	registeredProcessors = map[string]Processor{}
	registrationOrder    []string
)

// RegisterProcessor registers the given annotation processor under the given
// name. Registering a second processor with the same name replaces the first.
func RegisterProcessor(name string, p Processor) {
	registryLock.Lock()
	defer registryLock.Unlock()
	if _, ok := registeredProcessors[name]; !ok {
		registrationOrder = append(registrationOrder, name)
	}
	registeredProcessors[name] = p
}

// AllRegisteredProcessors returns the list of all registered processors, in
// the order in which they were first registered.
func AllRegisteredProcessors() []Processor {
	registryLock.Lock()
	defer registryLock.Unlock()
	procs := make([]Processor, len(registrationOrder))
	for i, name := range registrationOrder {
		procs[i] = registeredProcessors[name]
	}
	return procs
}

// RegisteredProcessor returns the processor registered under the given name.
func RegisteredProcessor(name string) (Processor, bool) {
	registryLock.Lock()
	defer registryLock.Unlock()
	p, ok := registeredProcessors[name]
	return p, ok
}

// RegisteredProcessorNames returns the names of all registered processors,
// sorted.
func RegisteredProcessorNames() []string {
	registryLock.Lock()
	defer registryLock.Unlock()
	names := make([]string, len(registrationOrder))
	copy(names, registrationOrder)
	sort.Strings(names)
	return names
}
