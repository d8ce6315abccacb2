package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"sdcard/types"

	"golang.org/x/sys/unix"
)

// DefaultMountTable is the kernel mount table read when no other path is configured
const DefaultMountTable = "/proc/mounts"

// mountEntry is one line of the mount table
type mountEntry struct {
	device     string
	mountPoint string
	fsType     string
}

// parseMountTable reads fstab-formatted lines, unescaping octal sequences in mount points
func parseMountTable(r io.Reader) ([]mountEntry, error) {
	var entries []mountEntry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		entries = append(entries, mountEntry{
			device:     fields[0],
			mountPoint: unescapeMount(fields[1]),
			fsType:     fields[2],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}
	return entries, nil
}

// unescapeMount decodes \040 style escapes used for spaces and tabs
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			oct := s[i+1 : i+4]
			var v byte
			ok := true
			for _, c := range []byte(oct) {
				if c < '0' || c > '7' {
					ok = false
					break
				}
				v = v*8 + (c - '0')
			}
			if ok {
				b.WriteByte(v)
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// underRoot reports whether mountPoint is strictly below one of the media roots
func underRoot(mountPoint string, roots []string) bool {
	clean := filepath.Clean(mountPoint)
	for _, root := range roots {
		root = filepath.Clean(root)
		if clean != root && strings.HasPrefix(clean, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// removableVolumes lists mounted volumes under the media roots, with space figures when available
func removableVolumes(mountTable string, roots []string) ([]types.Volume, error) {
	f, err := os.Open(mountTable)
	if err != nil {
		return nil, fmt.Errorf("open mount table %s: %w", mountTable, err)
	}
	defer f.Close()

	entries, err := parseMountTable(f)
	if err != nil {
		return nil, err
	}

	var volumes []types.Volume
	seen := make(map[string]bool)
	for _, e := range entries {
		if !underRoot(e.mountPoint, roots) || seen[e.mountPoint] {
			continue
		}
		seen[e.mountPoint] = true

		vol := types.Volume{
			MountPoint: e.mountPoint,
			Device:     e.device,
			FSType:     e.fsType,
		}
		var st unix.Statfs_t
		if err := unix.Statfs(e.mountPoint, &st); err == nil {
			vol.TotalBytes = uint64(st.Blocks) * uint64(st.Bsize)
			vol.FreeBytes = uint64(st.Bavail) * uint64(st.Bsize)
		}
		volumes = append(volumes, vol)
	}
	return volumes, nil
}
