package sim

import "fmt"

// DefaultLevelID is the level used when a container is addressed without an id.
const DefaultLevelID = "default"

// Container holds continuous amounts under one or more level ids, each with
// its own capacity. Full and empty events let conditions wait on a level
// reaching a threshold.
type Container struct {
	env          *Env
	name         string
	capacity     map[string]int64
	levels       map[string]int64
	fullWaiters  map[string][]*Event
	emptyWaiters map[string][]*Event
}

// NewContainer creates a container with a single default level.
func NewContainer(env *Env, name string, capacity, initial int64) *Container {
	c := &Container{
		env:          env,
		name:         name,
		capacity:     make(map[string]int64),
		levels:       make(map[string]int64),
		fullWaiters:  make(map[string][]*Event),
		emptyWaiters: make(map[string][]*Event),
	}
	c.AddLevel(DefaultLevelID, capacity, initial)
	return c
}

// AddLevel declares an additional level id. Initial is clamped into [0, capacity].
func (c *Container) AddLevel(id string, capacity, initial int64) {
	if capacity < 0 {
		capacity = 0
	}
	initial = max(0, min(initial, capacity))
	c.capacity[id] = capacity
	c.levels[id] = initial
}

// Name returns the container name.
func (c *Container) Name() string {
	return c.name
}

// HasLevel reports whether id (or the default level, for "") is declared.
func (c *Container) HasLevel(id string) bool {
	_, ok := c.capacity[c.resolve(id)]
	return ok
}

// Level returns the current amount for id.
func (c *Container) Level(id string) int64 {
	return c.levels[c.resolve(id)]
}

// Capacity returns the capacity for id.
func (c *Container) Capacity(id string) int64 {
	return c.capacity[c.resolve(id)]
}

// Put adds amount to level id. Fails if the result would exceed capacity.
func (c *Container) Put(id string, amount int64) error {
	id = c.resolve(id)
	if _, ok := c.capacity[id]; !ok {
		return fmt.Errorf("container %s: unknown level %q", c.name, id)
	}
	if amount < 0 || c.levels[id]+amount > c.capacity[id] {
		return fmt.Errorf("container %s: cannot put %d into level %q (%d/%d)", c.name, amount, id, c.levels[id], c.capacity[id])
	}
	c.levels[id] += amount
	c.notify(id)
	return nil
}

// Get removes amount from level id. Fails if the level holds less than amount.
func (c *Container) Get(id string, amount int64) error {
	id = c.resolve(id)
	if _, ok := c.capacity[id]; !ok {
		return fmt.Errorf("container %s: unknown level %q", c.name, id)
	}
	if amount < 0 || c.levels[id] < amount {
		return fmt.Errorf("container %s: cannot get %d from level %q (%d/%d)", c.name, amount, id, c.levels[id], c.capacity[id])
	}
	c.levels[id] -= amount
	c.notify(id)
	return nil
}

// FullEvent returns an event that fires when level id reaches capacity.
// Fires at the current time if the level is already full.
// An undeclared id never fires; callers check HasLevel first.
func (c *Container) FullEvent(id string) *Event {
	id = c.resolve(id)
	ev := c.env.NewEvent(fmt.Sprintf("full:%s/%s", c.name, id))
	if _, ok := c.capacity[id]; !ok {
		return ev
	}
	if c.levels[id] >= c.capacity[id] {
		_ = ev.Succeed(nil)
		return ev
	}
	c.fullWaiters[id] = append(c.fullWaiters[id], ev)
	return ev
}

// EmptyEvent returns an event that fires when level id reaches zero.
// Fires at the current time if the level is already empty.
// An undeclared id never fires; callers check HasLevel first.
func (c *Container) EmptyEvent(id string) *Event {
	id = c.resolve(id)
	ev := c.env.NewEvent(fmt.Sprintf("empty:%s/%s", c.name, id))
	if _, ok := c.capacity[id]; !ok {
		return ev
	}
	if c.levels[id] <= 0 {
		_ = ev.Succeed(nil)
		return ev
	}
	c.emptyWaiters[id] = append(c.emptyWaiters[id], ev)
	return ev
}

func (c *Container) notify(id string) {
	if c.levels[id] >= c.capacity[id] {
		for _, ev := range c.fullWaiters[id] {
			_ = ev.Succeed(nil)
		}
		delete(c.fullWaiters, id)
	}
	if c.levels[id] <= 0 {
		for _, ev := range c.emptyWaiters[id] {
			_ = ev.Succeed(nil)
		}
		delete(c.emptyWaiters, id)
	}
}

func (c *Container) resolve(id string) string {
	if id == "" {
		return DefaultLevelID
	}
	return id
}
