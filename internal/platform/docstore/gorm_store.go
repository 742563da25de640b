package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is the storage row backing one schemaless document.
type Document struct {
	Collection string             `gorm:"primaryKey;type:varchar(100)"`
	DocID      string             `gorm:"primaryKey;column:doc_id;type:varchar(100)"`
	Data       datatypes.JSONMap  `gorm:"type:jsonb"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Document) TableName() string { return "documents" }

// GormStore implements Store on a single JSONB-backed Postgres table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (Data, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Data(doc.Data), nil
}

func (s *GormStore) Set(ctx context.Context, collection, id string, data Data, merge bool) error {
	if !merge {
		doc := Document{
			Collection: collection,
			DocID:      id,
			Data:       datatypes.JSONMap(data),
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		return s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(&doc).Error
	}

	// Merge is a read-modify-write under a row lock: shallow key merge,
	// matching hosted setDoc(..., {merge: true}) semantics.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc Document
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection = ? AND doc_id = ?", collection, id).
			First(&doc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			doc = Document{
				Collection: collection,
				DocID:      id,
				Data:       datatypes.JSONMap(data),
				CreatedAt:  time.Now(),
				UpdatedAt:  time.Now(),
			}
			return tx.Create(&doc).Error
		}
		if err != nil {
			return err
		}

		if doc.Data == nil {
			doc.Data = datatypes.JSONMap{}
		}
		for k, v := range data {
			doc.Data[k] = v
		}
		doc.UpdatedAt = time.Now()
		return tx.Save(&doc).Error
	})
}

func (s *GormStore) Query(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Data, error) {
	q := s.db.WithContext(ctx).Model(&Document{}).Where("collection = ?", collection)

	for _, f := range filters {
		q = q.Where(datatypes.JSONQuery("data").Equals(f.Value, f.Field))
	}

	if order != nil {
		dir := "ASC"
		if order.Desc {
			dir = "DESC"
		}
		// Field names come from our own services, never from request input.
		q = q.Order(fmt.Sprintf("data->>'%s' %s", order.Field, dir))
	}

	if limit > 0 {
		q = q.Limit(limit)
	}

	var docs []Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, err
	}

	out := make([]Data, 0, len(docs))
	for _, d := range docs {
		out = append(out, Data(d.Data))
	}
	return out, nil
}
