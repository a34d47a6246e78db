// Package inventory provides an indexed in-memory snapshot of the upstream
// station and basin inventories, built using hashicorp/go-memdb.
package inventory

import (
	"github.com/hashicorp/go-memdb"
	"github.com/nvxtech/hidroweb-go/hidroweb"
)

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"stations": {
			Name: "stations",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Code"},
				},
				"state": {
					Name:         "state",
					Unique:       false,
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "State"},
				},
				"basin": {
					Name:         "basin",
					Unique:       false,
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "Basin"},
				},
			},
		},
		"basins": {
			Name: "basins",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Code"},
				},
			},
		},
	},
}

// Index represents the in-memory inventory snapshot
type Index struct {
	db *memdb.MemDB
}

// New creates a new empty inventory index
func New() (*Index, error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}
	return &Index{db}, nil
}

// ReplaceStations replaces the station snapshot wholesale
func (index *Index) ReplaceStations(stations []hidroweb.Station) error {
	txn := index.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll("stations", "id_prefix", ""); err != nil {
		return err
	}
	for i := range stations {
		if err := txn.Insert("stations", &stations[i]); err != nil {
			return err
		}
	}
	txn.Commit()
	return nil
}

// ReplaceBasins replaces the basin snapshot wholesale
func (index *Index) ReplaceBasins(basins []hidroweb.Basin) error {
	txn := index.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll("basins", "id_prefix", ""); err != nil {
		return err
	}
	for i := range basins {
		if err := txn.Insert("basins", &basins[i]); err != nil {
			return err
		}
	}
	txn.Commit()
	return nil
}

// StationByCode retrieves a station by its code.
// Returns nil if the code is not part of the snapshot.
func (index *Index) StationByCode(code string) (*hidroweb.Station, error) {
	txn := index.db.Txn(false)
	obj, err := txn.First("stations", "id", code)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(*hidroweb.Station), nil
}

// Stations retrieves the stations matching the given state and basin name.
// Empty filter values match everything.
func (index *Index) Stations(state, basin string) ([]hidroweb.Station, error) {
	txn := index.db.Txn(false)

	var it memdb.ResultIterator
	var err error
	switch {
	case state != "":
		it, err = txn.Get("stations", "state", state)
	case basin != "":
		it, err = txn.Get("stations", "basin", basin)
	default:
		it, err = txn.Get("stations", "id")
	}
	if err != nil {
		return nil, err
	}

	stations := []hidroweb.Station{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		station := obj.(*hidroweb.Station)
		if state != "" && station.State != state {
			continue
		}
		if basin != "" && station.Basin != basin {
			continue
		}
		stations = append(stations, *station)
	}
	return stations, nil
}

// Basins retrieves the basin snapshot
func (index *Index) Basins() ([]hidroweb.Basin, error) {
	txn := index.db.Txn(false)
	it, err := txn.Get("basins", "id")
	if err != nil {
		return nil, err
	}

	basins := []hidroweb.Basin{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		basins = append(basins, *obj.(*hidroweb.Basin))
	}
	return basins, nil
}
