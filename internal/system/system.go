package system

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

var (
	ErrNoMatchingFile     = errors.New("no matching file")
	ErrInsufficientMemory = errors.New("insufficient memory")
)

// FindLatestFile returns the most recently modified file in dir whose name
// ends with one of exts (case-insensitive).
func FindLatestFile(dir string, exts ...string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("%s in %s: %w", strings.Join(exts, ","), dir, ErrNoMatchingFile)
	}
	return latestFile, nil
}

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// GetBestH264Encoder probes ffmpeg for a hardware H.264 encoder and falls back
// to libx264.
func GetBestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	// Сначала VideoToolbox (macOS), затем NVENC
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// FrameBytes is the memory held by n decoded RGBA frames of w x h.
func FrameBytes(w, h, n int) uint64 {
	return uint64(w) * uint64(h) * 4 * uint64(n)
}

// CheckFrameMemory fails when n frames of w x h would take more than budget
// (a fraction) of the memory currently available on the host.
func CheckFrameMemory(w, h, n int, budget float64) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		// Не удалось узнать память хоста, рендер не блокируем
		return nil
	}
	return checkMemory(FrameBytes(w, h, n), vm.Available, budget)
}

func checkMemory(need, available uint64, budget float64) error {
	limit := uint64(float64(available) * budget)
	if need > limit {
		return fmt.Errorf("frames need %d MiB, budget is %d MiB: %w", need>>20, limit>>20, ErrInsufficientMemory)
	}
	return nil
}

// HostReport describes the machine a render ran on.
type HostReport struct {
	OS        string
	Platform  string
	CPUs      int
	TotalMiB  uint64
	UsedPct   float64
	GoVersion string
}

func Host() HostReport {
	r := HostReport{OS: runtime.GOOS, CPUs: runtime.NumCPU(), GoVersion: runtime.Version()}
	if info, err := host.Info(); err == nil {
		r.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		r.TotalMiB = vm.Total >> 20
		r.UsedPct = vm.UsedPercent
	}
	return r
}

func (r HostReport) String() string {
	return fmt.Sprintf("%s/%s | CPUs: %d | RAM: %d MiB (%.1f%% used) | %s",
		r.OS, r.Platform, r.CPUs, r.TotalMiB, r.UsedPct, r.GoVersion)
}
