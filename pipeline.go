package glide

import "sync"

// task splits data into workersCount contiguous chunks and runs fn on each element,
// one goroutine per chunk. fn receives the index of the worker running it, so each
// worker can own its scratch state.
func task[T any](workersCount int, data []T, fn func(worker int, data T)) {
	if len(data) == 0 {
		return
	}
	workersCount = max(1, min(workersCount, len(data)))
	if workersCount == 1 {
		for _, d := range data {
			fn(0, d)
		}
		return
	}

	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(worker, data[i])
			}
		}(workerID, workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()
}
