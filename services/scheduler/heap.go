package scheduler

import "container/heap"

// taskHeap implements container/heap.Interface, ordering ScheduledTasks
// by (priority ascending, scheduledTime ascending) — lower TaskPriority
// values (critical=1) sort first, per spec.md §4.G.
type taskHeap []*ScheduledTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].ScheduledTime.Before(h[j].ScheduledTime)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	task := x.(*ScheduledTask)
	task.index = len(*h)
	*h = append(*h, task)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*h = old[:n-1]
	return task
}

var _ heap.Interface = (*taskHeap)(nil)
