// Package concurrency provides the one concurrency primitive spec.md's
// Non-goals leave room for: parallelizing the independent, per-neuron work
// done while building a large Network (random weight initialization,
// register allocation warm-up), never the training loop itself. A Network
// trains on a single goroutine; spec.md explicitly rules out multi-threaded
// training within one instance.
package concurrency

import (
	"runtime"
	"sync"
)

// Range runs f(i) for every i in [start, end) across multiple goroutines,
// then waits for all of them to finish. The range includes start and
// excludes end; callers must ensure end >= start.
//
// opsPerChunk controls how many indices a goroutine claims at a time before
// asking for more, and threadsPerCPU scales the number of goroutines
// relative to runtime.NumCPU(). Both exist so a caller initializing a huge
// Network can tune the split; callers building ordinary small networks can
// just pass 1 and 1.
func Range(start, end int, opsPerChunk, threadsPerCPU int, f func(int)) {
	if end <= start {
		return
	}

	numThreads := runtime.NumCPU() * threadsPerCPU
	if numThreads > end-start {
		numThreads = end - start
	}

	var (
		mu    sync.Mutex
		index = start
		wg    sync.WaitGroup
	)

	wg.Add(numThreads)
	for t := 0; t < numThreads; t++ {
		go func() {
			defer wg.Done()

			for {
				mu.Lock()
				if index >= end {
					mu.Unlock()
					return
				}

				i := index
				index += opsPerChunk
				mu.Unlock()

				e := i + opsPerChunk
				if e > end {
					e = end
				}

				for ; i < e; i++ {
					f(i)
				}
			}
		}()
	}

	wg.Wait()
}
