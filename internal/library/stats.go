package library

import "github.com/mesh-intelligence/stager/pkg/types"

// Stats summarizes the versions of one job.
type Stats struct {
	Assets   int                  `json:"assets"`
	Versions int                  `json:"versions"`
	ByModule map[types.Module]int `json:"by_module"`
	Approved int                  `json:"approved"`
	Final    int                  `json:"final"`
}

// Stats counts a job's versions in one pass over an unfiltered query.
// Assets counts distinct assets with at least one version; Approved counts
// chainable versions (approved or final_ready) and Final counts
// final_ready ones.
func (l *Library) Stats(jobID string) (Stats, error) {
	entries, err := l.Query(jobID, Filter{})
	if err != nil {
		return Stats{}, err
	}
	return Summarize(entries), nil
}

// Summarize computes Stats over entries.
func Summarize(entries []Entry) Stats {
	s := Stats{ByModule: make(map[types.Module]int)}
	seen := make(map[string]struct{})
	for _, e := range entries {
		s.Versions++
		s.ByModule[e.Module]++
		seen[e.AssetID] = struct{}{}
		if IsChainable(e.Version) {
			s.Approved++
		}
		if e.Status == types.StatusFinalReady {
			s.Final++
		}
	}
	s.Assets = len(seen)
	return s
}
