package comparison

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceUsage summarizes the CPU and memory of a server process tree
// while it was under load.
type ResourceUsage struct {
	Samples       int     `json:"samples"`
	CPUAvgPercent float64 `json:"cpuAvgPercent"`
	CPUMaxPercent float64 `json:"cpuMaxPercent"`
	MemAvgBytes   uint64  `json:"memAvgBytes"`
	MemMaxBytes   uint64  `json:"memMaxBytes"`
}

// ResourcePoint is a single sample.
type ResourcePoint struct {
	CPUPercent float64
	RSSBytes   uint64
}

// summarize folds samples into a ResourceUsage.
func summarize(points []ResourcePoint) *ResourceUsage {
	if len(points) == 0 {
		return nil
	}

	usage := &ResourceUsage{Samples: len(points)}
	var cpuSum float64
	var memSum uint64
	for _, p := range points {
		cpuSum += p.CPUPercent
		memSum += p.RSSBytes
		if p.CPUPercent > usage.CPUMaxPercent {
			usage.CPUMaxPercent = p.CPUPercent
		}
		if p.RSSBytes > usage.MemMaxBytes {
			usage.MemMaxBytes = p.RSSBytes
		}
	}
	usage.CPUAvgPercent = cpuSum / float64(len(points))
	usage.MemAvgBytes = memSum / uint64(len(points))
	return usage
}

// sampler collects process metrics for a pid and its children.
type sampler struct {
	logger   zerolog.Logger
	interval time.Duration

	mu     sync.Mutex
	points []ResourcePoint
	procs  map[int32]*process.Process
}

func newSampler(logger zerolog.Logger, interval time.Duration) *sampler {
	return &sampler{
		logger:   logger,
		interval: interval,
		procs:    make(map[int32]*process.Process),
	}
}

// run samples pid until ctx is done. Sampling is best effort: errors are
// logged at debug level and the sample skipped.
func (s *sampler) run(ctx context.Context, pid int) {
	root, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		s.logger.Debug().Err(err).Int("pid", pid).Msg("process not available for sampling")
		return
	}
	s.procs[root.Pid] = root

	// The first CPUPercent call only primes the counters
	s.sample(ctx, root)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			point, ok := s.sample(ctx, root)
			if !ok {
				continue
			}
			s.mu.Lock()
			s.points = append(s.points, point)
			s.mu.Unlock()
		}
	}
}

// sample reads the process tree rooted at root.
func (s *sampler) sample(ctx context.Context, root *process.Process) (ResourcePoint, bool) {
	tree := []*process.Process{root}
	if children, err := root.ChildrenWithContext(ctx); err == nil {
		for _, child := range children {
			// Reuse handles so CPUPercent measures since the previous tick
			if known, ok := s.procs[child.Pid]; ok {
				tree = append(tree, known)
				continue
			}
			s.procs[child.Pid] = child
			tree = append(tree, child)
		}
	}

	var point ResourcePoint
	sampled := false
	for _, p := range tree {
		cpu, err := p.PercentWithContext(ctx, 0)
		if err != nil {
			s.logger.Debug().Err(err).Int32("pid", p.Pid).Msg("cpu sample failed")
			continue
		}
		mem, err := p.MemoryInfoWithContext(ctx)
		if err != nil {
			s.logger.Debug().Err(err).Int32("pid", p.Pid).Msg("memory sample failed")
			continue
		}
		point.CPUPercent += cpu
		point.RSSBytes += mem.RSS
		sampled = true
	}
	return point, sampled
}

// usage returns the summary of everything sampled so far.
func (s *sampler) usage() *ResourceUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summarize(s.points)
}
