package constellation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// AssetVersion is the table asset format version written by Export.
const AssetVersion = 1

var (
	// ErrMissingAsset is returned when no asset exists for a requested order.
	ErrMissingAsset = errors.New("constellation asset not found")
	// ErrCorruptAsset is returned when an asset fails validation.
	ErrCorruptAsset = errors.New("corrupt constellation asset")
)

// asset is the on-disk YAML form of a table.
type asset struct {
	Version  int              `yaml:"version"`
	Scheme   string           `yaml:"scheme"`
	Order    int              `yaml:"order"`
	Checksum string           `yaml:"checksum"`
	Forward  map[string]Point `yaml:"forward"`
	Inverse  []inverseEntry   `yaml:"inverse"`
}

type inverseEntry struct {
	I    int    `yaml:"i"`
	Q    int    `yaml:"q"`
	Bits string `yaml:"bits"`
}

// AssetName returns the file name used for an order's asset, e.g. "qam16.yaml".
func AssetName(order int) string {
	return fmt.Sprintf("qam%d.yaml", 1<<order)
}

// Marshal encodes t as a YAML asset.
func Marshal(t *Table) ([]byte, error) {
	a := asset{
		Version:  AssetVersion,
		Scheme:   fmt.Sprintf("QAM%d", t.Len()),
		Order:    t.order,
		Checksum: FormatChecksum(Checksum(t)),
		Forward:  make(map[string]Point, t.Len()),
		Inverse:  make([]inverseEntry, 0, t.Len()),
	}
	for group, p := range t.forward {
		key := t.Key(group)
		a.Forward[key] = p
		a.Inverse = append(a.Inverse, inverseEntry{I: p.I, Q: p.Q, Bits: key})
	}
	return yaml.Marshal(&a)
}

// Unmarshal decodes and validates a YAML asset.
func Unmarshal(data []byte) (*Table, error) {
	var a asset
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAsset, err)
	}
	if a.Version != AssetVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptAsset, a.Version)
	}
	if err := checkOrder(a.Order); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAsset, err)
	}
	if len(a.Forward) != 1<<a.Order {
		return nil, fmt.Errorf("%w: %d forward entries, want %d", ErrCorruptAsset, len(a.Forward), 1<<a.Order)
	}

	forward := make([]Point, 1<<a.Order)
	for key, p := range a.Forward {
		group, err := ParseKey(key, a.Order)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptAsset, err)
		}
		forward[group] = p
	}

	t, err := New(a.Order, forward)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptAsset, err)
	}

	if len(a.Inverse) != t.Len() {
		return nil, fmt.Errorf("%w: %d inverse entries, want %d", ErrCorruptAsset, len(a.Inverse), t.Len())
	}
	for _, e := range a.Inverse {
		group, ok := t.Group(Point{I: e.I, Q: e.Q})
		if !ok || t.Key(group) != e.Bits {
			return nil, fmt.Errorf("%w: inverse entry (%d,%d)->%s disagrees with forward table",
				ErrCorruptAsset, e.I, e.Q, e.Bits)
		}
	}
	if !VerifyChecksum(t, a.Checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch (have %s, computed %s)",
			ErrCorruptAsset, a.Checksum, FormatChecksum(Checksum(t)))
	}
	return t, nil
}

// Load reads the asset for order from dir.
func Load(dir string, order int) (*Table, error) {
	path := filepath.Join(dir, AssetName(order))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingAsset, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	t, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if t.order != order {
		return nil, fmt.Errorf("load %s: %w: asset has order %d, want %d", path, ErrCorruptAsset, t.order, order)
	}
	return t, nil
}

// Export writes the canonical asset for each order into dir and returns the
// paths written.
func Export(dir string, orders []int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var paths []string
	for _, order := range orders {
		t, err := Generate(order)
		if err != nil {
			return paths, err
		}
		data, err := Marshal(t)
		if err != nil {
			return paths, fmt.Errorf("marshal order %d: %w", order, err)
		}
		path := filepath.Join(dir, AssetName(order))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
