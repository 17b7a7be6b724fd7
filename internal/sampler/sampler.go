// Package sampler implements the resource sampler (component G): system and
// per-process CPU/memory/disk telemetry on top of gopsutil/v4, with small
// circular histories of CPU and memory samples appended on each Stats call.
package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Snapshot is a point-in-time system-wide resource reading.
type Snapshot struct {
	CPUPercent     float64
	PerCorePercent []float64
	MemTotal       uint64
	MemUsed        uint64
	MemAvailable   uint64
	MemUsedPercent float64
	SwapTotal      uint64
	SwapUsed       uint64
	DiskReadBps    float64
	DiskWriteBps   float64
	DiskTotal      uint64
	DiskAvailable  uint64
	Timestamp      time.Time
}

// ProcessMetrics is a point-in-time per-pid reading.
type ProcessMetrics struct {
	PID        int32
	CPUPercent float64
	MemBytes   uint64
	DiskRead   uint64
	DiskWrite  uint64
}

type diskTotals struct {
	at    time.Time
	read  uint64
	write uint64
}

// Sampler holds the last-refreshed OS snapshot plus bounded CPU/memory
// history. All queries are synchronous reads of that last-refreshed state;
// Refresh/RefreshCPU/RefreshMemory are the only methods that touch the OS.
type Sampler struct {
	mu       sync.Mutex
	last     Snapshot
	procs    map[int32]ProcessMetrics
	cpuHist  *history
	memHist  *history
	prevDisk *diskTotals
}

// New returns a Sampler whose CPU and memory histories each hold
// HistoryCapacity samples.
func New() *Sampler {
	return &Sampler{
		procs:   make(map[int32]ProcessMetrics),
		cpuHist: newHistory(HistoryCapacity),
		memHist: newHistory(HistoryCapacity),
	}
}

// HistoryCapacity is the default number of retained CPU/memory samples.
const HistoryCapacity = 60

// Refresh takes a full sample: CPU (global + per-core), memory (RAM+swap),
// the per-process table, and disk usage/IO rate.
func (s *Sampler) Refresh(ctx context.Context) error {
	if err := s.RefreshCPU(ctx); err != nil {
		return err
	}
	if err := s.RefreshMemory(ctx); err != nil {
		return err
	}
	return s.refreshProcessesAndDisk(ctx)
}

// RefreshCPU samples global and per-core CPU percentages.
func (s *Sampler) RefreshCPU(ctx context.Context) error {
	overall, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return err
	}
	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if len(overall) > 0 {
		s.last.CPUPercent = overall[0]
	}
	s.last.PerCorePercent = perCore
	s.last.Timestamp = time.Now()
	s.mu.Unlock()
	return nil
}

// RefreshMemory samples RAM and swap usage.
func (s *Sampler) RefreshMemory(ctx context.Context) error {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return err
	}
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.last.MemTotal = vm.Total
	s.last.MemUsed = vm.Used
	s.last.MemAvailable = vm.Available
	s.last.MemUsedPercent = vm.UsedPercent
	s.last.SwapTotal = sw.Total
	s.last.SwapUsed = sw.Used
	s.last.Timestamp = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Sampler) refreshProcessesAndDisk(ctx context.Context) error {
	pids, err := gopsproc.PidsWithContext(ctx)
	if err != nil {
		return err
	}

	procs := make(map[int32]ProcessMetrics, len(pids))
	var totalRead, totalWrite uint64
	for _, pid := range pids {
		p, err := gopsproc.NewProcessWithContext(ctx, pid)
		if err != nil {
			continue
		}
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		memInfo, _ := p.MemoryInfoWithContext(ctx)
		ioCounters, _ := p.IOCountersWithContext(ctx)

		pm := ProcessMetrics{PID: pid, CPUPercent: cpuPct}
		if memInfo != nil {
			pm.MemBytes = memInfo.RSS
		}
		if ioCounters != nil {
			pm.DiskRead = ioCounters.ReadBytes
			pm.DiskWrite = ioCounters.WriteBytes
			totalRead += ioCounters.ReadBytes
			totalWrite += ioCounters.WriteBytes
		}
		procs[pid] = pm
	}

	var diskTotal, diskAvail uint64
	if usage, err := disk.UsageWithContext(ctx, "/"); err == nil {
		diskTotal = usage.Total
		diskAvail = usage.Free
	}

	now := time.Now()
	s.mu.Lock()
	s.procs = procs
	s.last.DiskTotal = diskTotal
	s.last.DiskAvailable = diskAvail
	if s.prevDisk != nil {
		elapsed := now.Sub(s.prevDisk.at).Seconds()
		if elapsed > 0 {
			s.last.DiskReadBps = float64(totalRead-s.prevDisk.read) / elapsed
			s.last.DiskWriteBps = float64(totalWrite-s.prevDisk.write) / elapsed
		}
	} else {
		s.last.DiskReadBps = 0
		s.last.DiskWriteBps = 0
	}
	s.prevDisk = &diskTotals{at: now, read: totalRead, write: totalWrite}
	s.last.Timestamp = now
	s.mu.Unlock()
	return nil
}

// Stats returns the last-refreshed system snapshot, and appends one CPU
// sample and one memory sample into the circular histories.
func (s *Sampler) Stats() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cpuHist.push(s.last.CPUPercent)
	s.memHist.push(s.last.MemUsedPercent)
	return s.last
}

// ProcessMetrics returns the last-sampled metrics for pid, or ok==false if
// the pid was not present in the last refresh.
func (s *Sampler) ProcessMetrics(pid int32) (ProcessMetrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm, ok := s.procs[pid]
	return pm, ok
}

// ProcessCount returns the number of processes visible in the last refresh.
func (s *Sampler) ProcessCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// Uptime, OSName, KernelVersion, Hostname are simple host-info accessors.
func Uptime(ctx context.Context) (uint64, error) { return host.UptimeWithContext(ctx) }

func Hostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	return info.Hostname, nil
}

func KernelVersion(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	return info.KernelVersion, nil
}

func OSName(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	return info.Platform, nil
}

// CPUHistory returns up to n most-recent CPU samples, newest first.
func (s *Sampler) CPUHistory(n int) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cpuHist.lastN(n)
}

// MemoryHistory returns up to n most-recent memory-percent samples, newest first.
func (s *Sampler) MemoryHistory(n int) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memHist.lastN(n)
}

