package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a shoot job.
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// SceneState tracks one scene inside a running shoot.
type SceneState struct {
	SceneID string `json:"scene_id"`
	Label   string `json:"label"`
	Status  string `json:"status"`
	ImageID string `json:"image_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Snapshot is a point-in-time copy of a job, safe to serialize.
type Snapshot struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"project_id,omitempty"`
	State     State        `json:"state"`
	Done      int          `json:"done"`
	Total     int          `json:"total"`
	Scenes    []SceneState `json:"scenes"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type job struct {
	snap       Snapshot
	subs       map[int]chan Snapshot
	next       int
	finishedAt time.Time
}

// finishedJobTTL is how long a terminal job stays queryable before it is
// evicted. The durable record is the project row.
const finishedJobTTL = time.Hour

// Registry tracks in-flight and recently finished shoot jobs in memory.
// Jobs do not survive a restart; the durable record is the project row.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*job
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*job)}
}

// Create registers a new running job covering the given scenes.
func (r *Registry) Create(scenes []SceneState) Snapshot {
	snap := Snapshot{
		ID:        uuid.New().String(),
		State:     StateRunning,
		Total:     len(scenes),
		Scenes:    append([]SceneState(nil), scenes...),
		CreatedAt: time.Now().UTC(),
	}
	r.mu.Lock()
	r.pruneLocked()
	r.jobs[snap.ID] = &job{snap: snap, subs: make(map[int]chan Snapshot)}
	r.mu.Unlock()
	return snap
}

// pruneLocked evicts terminal jobs past their retention. Callers hold r.mu.
func (r *Registry) pruneLocked() {
	cutoff := time.Now().Add(-finishedJobTTL)
	for id, j := range r.jobs {
		if j.snap.State != StateRunning && !j.finishedAt.IsZero() && j.finishedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}

// Get returns a snapshot of the job, if it exists.
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Snapshot{}, false
	}
	return cloneSnapshot(j.snap), true
}

// UpdateScene records a terminal scene result and bumps the done counter.
func (r *Registry) UpdateScene(id string, index int, st SceneState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || index < 0 || index >= len(j.snap.Scenes) {
		return
	}
	j.snap.Scenes[index] = st
	j.snap.Done++
	r.broadcastLocked(j)
}

// SetProject attaches the persisted project id to the job.
func (r *Registry) SetProject(id, projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.snap.ProjectID = projectID
		r.broadcastLocked(j)
	}
}

// Finish moves the job to a terminal state and closes all subscriptions.
func (r *Registry) Finish(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return
	}
	if err != nil {
		j.snap.State = StateFailed
		j.snap.Error = err.Error()
	} else {
		j.snap.State = StateDone
	}
	j.finishedAt = time.Now()
	r.broadcastLocked(j)
	for key, ch := range j.subs {
		close(ch)
		delete(j.subs, key)
	}
}

// Subscribe returns a channel of snapshots for the job plus a cancel
// function. The channel closes when the job finishes. Subscribing to a
// finished or unknown job returns a closed channel carrying the final
// snapshot if known.
func (r *Registry) Subscribe(id string) (<-chan Snapshot, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		ch := make(chan Snapshot)
		close(ch)
		return ch, func() {}
	}
	if j.snap.State != StateRunning {
		ch := make(chan Snapshot, 1)
		ch <- cloneSnapshot(j.snap)
		close(ch)
		return ch, func() {}
	}

	key := j.next
	j.next++
	ch := make(chan Snapshot, 16)
	ch <- cloneSnapshot(j.snap)
	j.subs[key] = ch

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if ch, ok := j.subs[key]; ok {
			close(ch)
			delete(j.subs, key)
		}
	}
	return ch, cancel
}

// broadcastLocked fans the current snapshot out to subscribers. Slow
// subscribers drop intermediate snapshots rather than blocking the shoot.
func (r *Registry) broadcastLocked(j *job) {
	for _, ch := range j.subs {
		select {
		case ch <- cloneSnapshot(j.snap):
		default:
		}
	}
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	out.Scenes = append([]SceneState(nil), s.Scenes...)
	return out
}
