package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMounts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mounts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVolumesSkipsVirtualFilesystems(t *testing.T) {
	s := NewService(nil)
	s.source = writeMounts(t, `proc /proc proc rw 0 0
sysfs /sys sysfs rw 0 0
/dev/sda1 / ext4 rw 0 0
tmpfs /run tmpfs rw 0 0
/dev/sdb1 /mnt/data xfs rw 0 0
`)

	paths, err := s.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/mnt/data"}, paths)
}

func TestVolumesReportsMetadata(t *testing.T) {
	s := NewService(nil)
	s.source = writeMounts(t, "/dev/sda1 / ext4 rw 0 0\n")

	volumes, err := s.Volumes()
	require.NoError(t, err)
	require.Len(t, volumes, 1)
	assert.Equal(t, "/dev/sda1", volumes[0].Device)
	assert.Equal(t, "ext4", volumes[0].Filesystem)
	// Statfs against a real mount point fills usage figures.
	assert.Greater(t, volumes[0].TotalBytes, uint64(0))
}

func TestVolumesUnescapesMountPoints(t *testing.T) {
	s := NewService(nil)
	s.source = writeMounts(t, `/dev/sdb1 /mnt/usb\040drive ext4 rw 0 0`+"\n")

	paths, err := s.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/mnt/usb drive"}, paths)
}

func TestVolumesCaches(t *testing.T) {
	s := NewService(nil)
	s.source = writeMounts(t, "/dev/sda1 / ext4 rw 0 0\n")

	_, err := s.Volumes()
	require.NoError(t, err)

	// Swap the source; the cached result must still be served.
	s.source = writeMounts(t, "/dev/sdc1 /mnt/other ext4 rw 0 0\n")
	paths, err := s.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, paths)

	s.Invalidate()
	paths, err = s.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/mnt/other"}, paths)
}

func TestMissingMountTable(t *testing.T) {
	s := NewService(nil)
	s.source = filepath.Join(t.TempDir(), "absent")

	_, err := s.Paths()
	assert.Error(t, err)
}
