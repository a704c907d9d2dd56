package disk

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/logging"
)

const mountsPath = "/proc/mounts"

// cacheTTL bounds how long an enumeration result is reused before the
// mount table is re-read.
const cacheTTL = 5 * time.Second

// Info describes one mounted volume.
type Info struct {
	Path       string `json:"path"`
	Device     string `json:"device"`
	Filesystem string `json:"filesystem"`
	TotalBytes uint64 `json:"total_bytes"`
	FreeBytes  uint64 `json:"free_bytes"`
}

// virtualFilesystems are skipped during enumeration; they are not
// candidates for file organization.
var virtualFilesystems = map[string]bool{
	"proc": true, "sysfs": true, "devtmpfs": true, "devpts": true,
	"tmpfs": true, "cgroup": true, "cgroup2": true, "overlay": true,
	"squashfs": true, "debugfs": true, "tracefs": true, "securityfs": true,
	"pstore": true, "bpf": true, "autofs": true, "mqueue": true,
	"hugetlbfs": true, "fusectl": true, "configfs": true, "ramfs": true,
	"binfmt_misc": true, "rpc_pipefs": true, "nsfs": true,
}

// Service enumerates mounted storage volumes. Results are cached briefly;
// the mount table rarely changes between UI refreshes.
type Service struct {
	log    *logging.Logger
	source string // mount table path, overridable in tests

	mu        sync.Mutex
	cached    []Info
	fetchedAt time.Time
}

// NewService creates a disk service reading the system mount table.
func NewService(logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{log: logger, source: mountsPath}
}

// Paths returns the mount points of every real mounted volume.
func (s *Service) Paths() ([]string, error) {
	volumes, err := s.Volumes()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(volumes))
	for _, v := range volumes {
		out = append(out, v.Path)
	}
	return out, nil
}

// Volumes returns descriptors for every real mounted volume, with usage
// figures where statfs succeeds.
func (s *Service) Volumes() ([]Info, error) {
	s.mu.Lock()
	if s.cached != nil && time.Since(s.fetchedAt) < cacheTTL {
		out := make([]Info, len(s.cached))
		copy(out, s.cached)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	volumes, err := s.enumerate()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cached = volumes
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	out := make([]Info, len(volumes))
	copy(out, volumes)
	return out, nil
}

// Invalidate drops the cached enumeration.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *Service) enumerate() ([]Info, error) {
	f, err := os.Open(s.source)
	if err != nil {
		return nil, fmt.Errorf("failed to read mount table: %w", err)
	}
	defer f.Close()

	var volumes []Info
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		device, mountPoint, fsType := fields[0], fields[1], fields[2]
		if virtualFilesystems[fsType] {
			continue
		}
		if !strings.HasPrefix(device, "/") && fsType != "zfs" && fsType != "btrfs" {
			continue
		}

		info := Info{
			Path:       unescapeMount(mountPoint),
			Device:     device,
			Filesystem: fsType,
		}

		var st unix.Statfs_t
		if err := unix.Statfs(info.Path, &st); err != nil {
			s.log.Debug("statfs failed", zap.String("path", info.Path), zap.Error(err))
		} else {
			info.TotalBytes = st.Blocks * uint64(st.Bsize)
			info.FreeBytes = st.Bavail * uint64(st.Bsize)
		}

		volumes = append(volumes, info)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan mount table: %w", err)
	}

	return volumes, nil
}

// unescapeMount decodes the octal escapes /proc/mounts uses for spaces
// and tabs in mount points.
func unescapeMount(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	replacer := strings.NewReplacer(
		`\040`, " ",
		`\011`, "\t",
		`\012`, "\n",
		`\134`, `\`,
	)
	return replacer.Replace(s)
}
