package types

import "time"

// Job groups the assets imported together, e.g. one property shoot.
type Job struct {
	JobID     string    `json:"job_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the store key of the job. Jobs have no parent.
func (j *Job) Key() Key {
	return Key{ID: j.JobID}
}

// Scene groups assets of one job that show the same room or view.
type Scene struct {
	SceneID   string    `json:"scene_id"`
	JobID     string    `json:"job_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Key returns the store key of the scene; scenes are owned by jobs.
func (s *Scene) Key() Key {
	return Key{Parent: s.JobID, ID: s.SceneID}
}
