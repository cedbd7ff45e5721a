package sequencer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrNoSaves is returned by LoadPatterns when the directory holds no saves.
var ErrNoSaves = errors.New("no saves found")

const saveTimeFormat = "2006-01-02_15-04-05"

// SaveInfo represents a saved pattern file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// FileStore keeps pattern blobs as timestamped JSON files in one directory.
// Every save writes a new file; the oldest are pruned beyond Keep.
type FileStore struct {
	Dir  string
	Keep int // 0 keeps everything

	now func() time.Time
}

// DefaultPatternsDir returns ~/.config/go-step/patterns
func DefaultPatternsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home dir")
	}
	return filepath.Join(home, ".config", "go-step", "patterns"), nil
}

func NewFileStore(dir string, keep int) *FileStore {
	return &FileStore{Dir: dir, Keep: keep, now: time.Now}
}

// SavePatterns writes blob to a new timestamped file.
func (f *FileStore) SavePatterns(blob []byte) error {
	return f.SaveNamed(blob, "")
}

// SaveNamed writes blob with an optional name after the timestamp.
func (f *FileStore) SaveNamed(blob []byte, name string) error {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return errors.Wrapf(err, "create %s", f.Dir)
	}

	filename := f.clock().Format(saveTimeFormat)
	if name != "" {
		filename += "_" + sanitizeFilename(name)
	}
	path := filepath.Join(f.Dir, filename+".json")

	// write then rename so a crash never leaves a torn save
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "rename %s", tmp)
	}

	return f.prune()
}

// LoadPatterns returns the newest save.
func (f *FileStore) LoadPatterns() ([]byte, error) {
	saves, err := f.ListSaves()
	if err != nil {
		return nil, err
	}
	if len(saves) == 0 {
		return nil, errors.Wrapf(ErrNoSaves, "in %s", f.Dir)
	}
	return f.Load(saves[0].Filename)
}

// Load reads a specific save file.
func (f *FileStore) Load(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.Dir, filepath.Base(filename)))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", filename)
	}
	return data, nil
}

// ListSaves returns timestamped saves, newest first
func (f *FileStore) ListSaves() ([]SaveInfo, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, errors.Wrapf(err, "list %s", f.Dir)
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.Slice(saves, func(i, j int) bool {
		if saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Filename > saves[j].Filename
		}
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// DeleteSave deletes a specific save file
func (f *FileStore) DeleteSave(filename string) error {
	if err := os.Remove(filepath.Join(f.Dir, filepath.Base(filename))); err != nil {
		return errors.Wrapf(err, "delete %s", filename)
	}
	return nil
}

func (f *FileStore) prune() error {
	if f.Keep <= 0 {
		return nil
	}
	saves, err := f.ListSaves()
	if err != nil {
		return err
	}
	for i := f.Keep; i < len(saves); i++ {
		if err := f.DeleteSave(saves[i].Filename); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileStore) clock() time.Time {
	if f.now == nil {
		return time.Now()
	}
	return f.now()
}

// parseSaveName accepts 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
func parseSaveName(filename string) (SaveInfo, bool) {
	base := strings.TrimSuffix(filename, ".json")
	if len(base) < len(saveTimeFormat) {
		return SaveInfo{}, false
	}
	ts, err := time.ParseInLocation(saveTimeFormat, base[:len(saveTimeFormat)], time.Local)
	if err != nil {
		return SaveInfo{}, false
	}

	info := SaveInfo{Filename: filename, Timestamp: ts}
	rest := base[len(saveTimeFormat):]
	if len(rest) > 1 && rest[0] == '_' {
		info.Name = rest[1:]
	}
	return info, true
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	return strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	).Replace(name)
}
