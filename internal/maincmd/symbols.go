package maincmd

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Niels862/flexul/lang/symbol"
)

// symbolDump is the YAML-serializable shape of one symbol.Entry, for the
// --symbols flag: a structured, diffable artifact rather than a
// fixed-column text dump.
type symbolDump struct {
	ID          symbol.ID   `yaml:"id"`
	Name        string      `yaml:"name"`
	StorageType string      `yaml:"storage"`
	Value       int64       `yaml:"value"`
	Size        uint32      `yaml:"size,omitempty"`
	Usages      uint64      `yaml:"usages"`
	Overloads   []symbol.ID `yaml:"overloads,omitempty"`
}

// dumpSymbols writes table's entries to w as a YAML sequence, in id
// order, skipping the two reserved rows (they carry no source-level
// information).
func dumpSymbols(w io.Writer, table *symbol.Table) error {
	entries := table.All()
	dump := make([]symbolDump, 0, len(entries))
	for _, e := range entries {
		if e.ID == symbol.InvalidID || e.ID == symbol.EntryID {
			continue
		}
		d := symbolDump{
			ID:          e.ID,
			Name:        e.Name,
			StorageType: e.StorageType.String(),
			Value:       e.Value,
			Size:        e.Size,
			Usages:      e.Usages,
		}
		for _, o := range e.Overloads {
			d.Overloads = append(d.Overloads, o.ID)
		}
		dump = append(dump, d)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dump); err != nil {
		return err
	}
	return enc.Close()
}
