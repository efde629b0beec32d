package planner

// Plan is an ordered collection of jobs, grouped by the huuid of the
// component node each job operates on. Grouping (not a single flat job
// list) lets the planner look up "the jobs already emitted for this
// child" when wiring a parent's dependencies; iteration order over both
// the node keys and each node's job list is insertion order, since the
// recursive children-before-parent construction is itself the topological
// order the sequential executor relies on.
type Plan struct {
	byKey map[string][]*Job
	order []string
}

// NewPlan constructs an empty plan.
func NewPlan() *Plan {
	return &Plan{byKey: map[string][]*Job{}}
}

// Append records job under the given node key, preserving first-seen order
// of keys.
func (p *Plan) Append(key string, job *Job) {
	if _, ok := p.byKey[key]; !ok {
		p.order = append(p.order, key)
	}
	p.byKey[key] = append(p.byKey[key], job)
}

// JobsFor returns the jobs previously appended under key, or nil.
func (p *Plan) JobsFor(key string) []*Job {
	return p.byKey[key]
}

// LastJobID returns the JobID of the most recently appended job for key,
// used to wire a parent's dependency on a child that already has jobs.
func (p *Plan) LastJobID(key string) (string, bool) {
	jobs := p.byKey[key]
	if len(jobs) == 0 {
		return "", false
	}
	return jobs[len(jobs)-1].JobID, true
}

// Keys returns the node keys in first-seen order.
func (p *Plan) Keys() []string {
	return append([]string(nil), p.order...)
}

// All flattens every job across every key, in first-seen key order and
// per-key append order — the exact order the sequential executor runs in.
func (p *Plan) All() []*Job {
	var out []*Job
	for _, k := range p.order {
		out = append(out, p.byKey[k]...)
	}
	return out
}

// Len reports the total number of jobs across all keys.
func (p *Plan) Len() int {
	n := 0
	for _, js := range p.byKey {
		n += len(js)
	}
	return n
}

// Merge appends another plan's jobs into p, preserving the other plan's
// internal key order for any keys not already present.
func (p *Plan) Merge(other *Plan) {
	if other == nil {
		return
	}
	for _, k := range other.order {
		for _, j := range other.byKey[k] {
			p.Append(k, j)
		}
	}
}
