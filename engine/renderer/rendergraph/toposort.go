package rendergraph

import "container/heap"

// indexHeap is a min-heap of insertion indices.
type indexHeap []int

func (h indexHeap) Len() int            { return len(h) }
func (h indexHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoSort orders nodes so that every node comes after its dependencies.
// Among nodes that are ready at the same time the one added first wins.
// deps[i] are the names node i depends on.
func topoSort(names []string, deps [][]string, index map[string]int) ([]int, error) {
	n := len(names)
	preds := make([][]int, n)
	dependents := make([][]int, n)
	indegree := make([]int, n)

	for i := range names {
		seen := make(map[int]bool, len(deps[i]))
		for _, d := range deps[i] {
			j, ok := index[d]
			if !ok {
				return nil, &UnknownDependencyError{Node: names[i], Name: d}
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			preds[i] = append(preds[i], j)
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	ready := &indexHeap{}
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)

	order := make([]int, 0, n)
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, i)
		for _, k := range dependents[i] {
			indegree[k]--
			if indegree[k] == 0 {
				heap.Push(ready, k)
			}
		}
	}
	if len(order) == n {
		return order, nil
	}
	return nil, &CyclicDependencyError{Nodes: findCycle(names, preds, indegree)}
}

// findCycle walks predecessors from the earliest unsorted node. Every unsorted
// node has an unsorted predecessor, so the walk must revisit a node; the part
// of the path from that node on is a cycle.
func findCycle(names []string, preds [][]int, indegree []int) []string {
	start := -1
	for i, d := range indegree {
		if d > 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	pos := make(map[int]int)
	var path []int
	cur := start
	for {
		if p, ok := pos[cur]; ok {
			path = path[p:]
			break
		}
		pos[cur] = len(path)
		path = append(path, cur)
		next := -1
		for _, p := range preds[cur] {
			if indegree[p] > 0 {
				next = p
				break
			}
		}
		cur = next
	}

	inCycle := make([]bool, len(names))
	for _, i := range path {
		inCycle[i] = true
	}
	cycle := make([]string, 0, len(path))
	for i, name := range names {
		if inCycle[i] {
			cycle = append(cycle, name)
		}
	}
	return cycle
}
