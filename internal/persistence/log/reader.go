package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"tillcraft.ai/internal/sim/world"
)

// Files lists the *.jsonl.zst files in dir in write order. Hourly file
// names sort chronologically.
func Files(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), segmentExt) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// ReadJSONL decodes every line of a compressed JSONL file, calling fn in order.
// A file may hold several zstd frames when it was appended to after a restart.
func ReadJSONL[T any](path string, fn func(T) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ReadTicks streams every journaled tick under worldDir in order.
func ReadTicks(worldDir string, fn func(world.TickLogEntry) error) error {
	files, err := Files(TicksDir(worldDir))
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := ReadJSONL(path, fn); err != nil {
			return err
		}
	}
	return nil
}

// ReadAudits streams every audit entry under worldDir in order.
func ReadAudits(worldDir string, fn func(world.AuditEntry) error) error {
	files, err := Files(AuditDir(worldDir))
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := ReadJSONL(path, fn); err != nil {
			return err
		}
	}
	return nil
}
