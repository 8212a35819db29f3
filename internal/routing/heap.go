package routing

import "github.com/couchcryptid/hazard-route-engine/internal/domain"

// entry is a (node, tentative cost) pair in the priority queue.
type entry struct {
	id   domain.NodeID
	cost float64
	seq  uint64
}

// entryPQ is a min-heap ordered by cost, then by insertion sequence.
type entryPQ []*entry

func (pq entryPQ) Len() int { return len(pq) }

func (pq entryPQ) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	return pq[i].seq < pq[j].seq
}

func (pq entryPQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *entryPQ) Push(x any) {
	*pq = append(*pq, x.(*entry))
}

func (pq *entryPQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}
