package roles

import (
	"fmt"

	"github.com/nstehr/warren/warren-core/colony"
	"github.com/nstehr/warren/warren-core/memory"
)

// minerRequests opens one slot per source that already has a container.
func minerRequests(v *colony.View) []Request {
	srcs := v.SourcesWithContainer()
	out := make([]Request, 0, len(srcs))
	for i, s := range srcs {
		out = append(out, Request{
			Key:      s.ID,
			NameHint: fmt.Sprintf("src%d", i),
			Memory:   memory.Binding{SourceID: s.ID},
		})
	}
	return out
}

// leastServedPipeline binds a new mover to the active pipeline with the
// fewest non-retiring movers already on it. Ties go to snapshot order.
func leastServedPipeline(v *colony.View) memory.Binding {
	pipes := v.ActivePipelines()
	if len(pipes) == 0 {
		return memory.Binding{}
	}
	served := make(map[string]int)
	for _, m := range v.Role(Mover) {
		if m.Retiring() || m.Mem.MoverSourceID == "" {
			continue
		}
		served[m.Mem.MoverSourceID]++
	}
	best := pipes[0]
	for _, p := range pipes[1:] {
		if served[p.ID] < served[best.ID] {
			best = p
		}
	}
	return memory.Binding{MoverSourceID: best.ID}
}
