package source

import "github.com/cms-content-migrator/internal/models"

// RawRow is one row of the denormalized legacy join. The scalar columns
// repeat on every row of a record; the attribute columns carry at most one
// category/tag/region/file each, and the join happily produces the same
// attribute more than once.
type RawRow struct {
	Record models.SourceRecord // scalar columns only; attribute slices unused

	CategoryID int64
	TagID      int64
	RegionID   int64
	File       *models.AttachedFile
}

// GroupRows folds raw joined rows into one record per primary id,
// collecting repeated attributes into sets. No attribute appears twice even
// when the join produced duplicate rows. Records keep the order in which
// their id first appeared, and attributes keep first-seen order.
func GroupRows(rows []RawRow) []models.SourceRecord {
	var order []int64
	byID := make(map[int64]*models.SourceRecord)
	seen := make(map[int64]*attributeSet)

	for i := range rows {
		row := &rows[i]
		id := row.Record.ID
		rec, ok := byID[id]
		if !ok {
			clone := row.Record
			clone.CategoryIDs = nil
			clone.TagIDs = nil
			clone.RegionIDs = nil
			clone.Files = nil
			byID[id] = &clone
			seen[id] = newAttributeSet()
			order = append(order, id)
			rec = &clone
		}

		set := seen[id]
		if row.CategoryID != 0 && set.addCategory(row.CategoryID) {
			rec.CategoryIDs = append(rec.CategoryIDs, row.CategoryID)
		}
		if row.TagID != 0 && set.addTag(row.TagID) {
			rec.TagIDs = append(rec.TagIDs, row.TagID)
		}
		if row.RegionID != 0 && set.addRegion(row.RegionID) {
			rec.RegionIDs = append(rec.RegionIDs, row.RegionID)
		}
		if row.File != nil && set.addFile(row.File.FileID) {
			rec.Files = append(rec.Files, *row.File)
		}
	}

	out := make([]models.SourceRecord, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

type attributeSet struct {
	categories map[int64]struct{}
	tags       map[int64]struct{}
	regions    map[int64]struct{}
	files      map[int64]struct{}
}

func newAttributeSet() *attributeSet {
	return &attributeSet{
		categories: make(map[int64]struct{}),
		tags:       make(map[int64]struct{}),
		regions:    make(map[int64]struct{}),
		files:      make(map[int64]struct{}),
	}
}

func (s *attributeSet) addCategory(id int64) bool { return add(s.categories, id) }
func (s *attributeSet) addTag(id int64) bool      { return add(s.tags, id) }
func (s *attributeSet) addRegion(id int64) bool   { return add(s.regions, id) }
func (s *attributeSet) addFile(id int64) bool     { return add(s.files, id) }

func add(m map[int64]struct{}, id int64) bool {
	if _, ok := m[id]; ok {
		return false
	}
	m[id] = struct{}{}
	return true
}
