package store

import (
	"quill/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagCreate struct {
	Name string
}

func (in TagCreate) Build() models.Tag {
	return models.Tag{Name: in.Name}
}

type TagPatch struct {
	Name *string
}

func (p TagPatch) Changes() map[string]any {
	changes := map[string]any{}
	if p.Name != nil {
		changes["name"] = *p.Name
	}
	return changes
}

type Tags struct {
	CRUD[models.Tag, TagCreate, TagPatch]
}

// Remove detaches the tag from every post before deleting it.
func (t Tags) Remove(db *gorm.DB, id uint) (*models.Tag, error) {
	var removed *models.Tag
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", id).Error; err != nil {
			return translate(err, "tag")
		}
		var err error
		removed, err = t.CRUD.Remove(tx, id)
		return err
	})
	if err != nil {
		return nil, translate(err, "tag")
	}
	return removed, nil
}

// Reconcile resolves names to tag rows, reusing rows whose name matches
// exactly and inserting the rest. The result follows the first occurrence
// order of names, with duplicates collapsed.
func (t Tags) Reconcile(db *gorm.DB, names []string) ([]models.Tag, error) {
	names = dedupeNames(names)
	if len(names) == 0 {
		return []models.Tag{}, nil
	}

	var existing []models.Tag
	if err := db.Where("name IN ?", names).Find(&existing).Error; err != nil {
		return nil, translate(err, "tag")
	}

	found, missing := partitionTagNames(names, existing)
	if len(missing) > 0 {
		fresh := make([]models.Tag, len(missing))
		for i, name := range missing {
			fresh[i] = models.Tag{Name: name}
		}
		// A concurrent request may insert the same name between the select
		// and this insert; those rows are picked up by the re-select.
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
			return nil, translate(err, "tag")
		}

		var created []models.Tag
		if err := db.Where("name IN ?", missing).Find(&created).Error; err != nil {
			return nil, translate(err, "tag")
		}
		for _, tag := range created {
			found[tag.Name] = tag
		}
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if tag, ok := found[name]; ok {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// partitionTagNames splits names into rows to reuse, keyed by name, and
// names that have no row yet.
func partitionTagNames(names []string, existing []models.Tag) (map[string]models.Tag, []string) {
	found := make(map[string]models.Tag, len(existing))
	for _, tag := range existing {
		found[tag.Name] = tag
	}

	var missing []string
	for _, name := range names {
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}
	return found, missing
}
