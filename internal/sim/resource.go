package sim

import "fmt"

// Resource is a counted resource with FIFO granting.
//
// At most Capacity requests hold the resource at once. Additional requests
// queue and are granted in arrival order as holders release.
type Resource struct {
	env      *Env
	name     string
	capacity int
	users    []*Request
	queue    []*Request
}

// Request is a pending or granted claim on a Resource. The embedded event
// fires when the claim is granted.
type Request struct {
	*Event
	resource *Resource
}

// Resource returns the resource the request was made against.
func (r *Request) Resource() *Resource {
	return r.resource
}

// NewResource creates a resource. Capacities below 1 are raised to 1.
func NewResource(env *Env, name string, capacity int) *Resource {
	if capacity < 1 {
		capacity = 1
	}
	return &Resource{env: env, name: name, capacity: capacity}
}

// Name returns the resource name.
func (r *Resource) Name() string {
	return r.name
}

// Capacity returns the number of concurrent holders allowed.
func (r *Resource) Capacity() int {
	return r.capacity
}

// Count returns the number of current holders.
func (r *Resource) Count() int {
	return len(r.users)
}

// QueueLen returns the number of requests waiting to be granted.
func (r *Resource) QueueLen() int {
	return len(r.queue)
}

// ClaimKey identifies the resource in a claim ledger.
func (r *Resource) ClaimKey() *Resource {
	return r
}

// Request enqueues a claim. The returned request's event fires when granted.
func (r *Resource) Request() *Request {
	req := &Request{
		Event:    r.env.NewEvent("request:" + r.name),
		resource: r,
	}
	r.queue = append(r.queue, req)
	r.grant()
	return req
}

// Release returns a granted claim, or cancels a queued one.
func (r *Resource) Release(req *Request) error {
	if req == nil || req.resource != r {
		return fmt.Errorf("release %s: request does not belong to this resource", r.name)
	}
	if i := indexOf(r.users, req); i >= 0 {
		r.users = append(r.users[:i], r.users[i+1:]...)
		r.grant()
		return nil
	}
	if i := indexOf(r.queue, req); i >= 0 {
		r.queue = append(r.queue[:i], r.queue[i+1:]...)
		return nil
	}
	return fmt.Errorf("release %s: request is not held or queued", r.name)
}

func (r *Resource) grant() {
	for len(r.users) < r.capacity && len(r.queue) > 0 {
		req := r.queue[0]
		r.queue = r.queue[1:]
		r.users = append(r.users, req)
		_ = req.Succeed(req)
	}
}

func indexOf(reqs []*Request, req *Request) int {
	for i, r := range reqs {
		if r == req {
			return i
		}
	}
	return -1
}
