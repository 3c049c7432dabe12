package db

import (
	"encoding/json"
	"log"
	"strconv"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"userinsight/internal/cohort"
	"userinsight/internal/filter"
)

// CohortStore is the persistence collaborator for saved cohorts. The
// comparison engine only ever sees the resolved form (name + filter
// spec); this store owns the rows.
type CohortStore struct {
	db *gorm.DB
}

func NewCohortStore(db *gorm.DB) *CohortStore {
	return &CohortStore{db: db}
}

// Create saves a new cohort capturing the given filter specification.
// The filter is immutable from this point on.
func (s *CohortStore) Create(name, color string, spec filter.Spec) (*Cohort, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}
	row := &Cohort{
		Name:   name,
		Color:  color,
		Filter: datatypes.JSON(body),
	}
	if err := s.db.Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// List returns all cohort rows, oldest first.
func (s *CohortStore) List() ([]Cohort, error) {
	var rows []Cohort
	if err := s.db.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns one cohort row by id.
func (s *CohortStore) Get(id uint) (*Cohort, error) {
	var row Cohort
	if err := s.db.First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Rename updates the mutable display fields of a cohort. The stored
// filter specification is deliberately untouched.
func (s *CohortStore) Rename(id uint, name, color string) error {
	return s.db.Model(&Cohort{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":  name,
		"color": color,
	}).Error
}

// Delete removes a cohort row.
func (s *CohortStore) Delete(id uint) error {
	return s.db.Delete(&Cohort{}, id).Error
}

// Resolve returns every saved cohort in the form the comparison engine
// consumes. Rows whose stored filter no longer decodes are skipped with
// a count-only diagnostic rather than failing the whole read.
func (s *CohortStore) Resolve() ([]cohort.Cohort, error) {
	rows, err := s.List()
	if err != nil {
		return nil, err
	}
	return resolveRows(rows), nil
}

// ResolveByIDs resolves only the named cohorts, preserving the order of
// ids. Unknown ids are ignored.
func (s *CohortStore) ResolveByIDs(ids []uint) ([]cohort.Cohort, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []Cohort
	if err := s.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]Cohort, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	ordered := make([]Cohort, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return resolveRows(ordered), nil
}

func resolveRows(rows []Cohort) []cohort.Cohort {
	out := make([]cohort.Cohort, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		var spec filter.Spec
		if err := json.Unmarshal(r.Filter, &spec); err != nil {
			dropped++
			continue
		}
		out = append(out, cohort.Cohort{
			ID:     strconv.FormatUint(uint64(r.ID), 10),
			Name:   r.Name,
			Color:  r.Color,
			Filter: spec,
		})
	}
	if dropped > 0 {
		log.Printf("cohort store: skipped %d rows with undecodable filters", dropped)
	}
	return out
}
