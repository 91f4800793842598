package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"go-sklad/internal/apperr"
)

// Record is the SQL row behind one document.
type Record struct {
	ID         string `gorm:"primaryKey;size:36"`
	Collection string `gorm:"index;size:64;not null"`
	Data       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Record) TableName() string { return "documents" }

// GormStore keeps documents as JSON rows. Filtering and ordering run in
// process after loading the collection, so any gorm dialect works.
type GormStore struct {
	db       *gorm.DB
	hub      *hub
	notifier Notifier
	log      *logrus.Logger
}

func NewGormStore(db *gorm.DB, notifier Notifier, log *logrus.Logger) *GormStore {
	return &GormStore{db: db, hub: newHub(), notifier: notifier, log: log}
}

func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *GormStore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	body, err := normalize(fields, time.Now())
	if err != nil {
		return "", apperr.Wrap("docstore.Create", apperr.ErrValidation, collection, err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", apperr.Wrap("docstore.Create", apperr.ErrValidation, collection, err)
	}
	rec := Record{ID: uuid.NewString(), Collection: collection, Data: string(raw)}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", apperr.Wrap("docstore.Create", apperr.ErrUnavailable, collection, err)
	}
	s.changed(ctx, collection)
	return rec.ID, nil
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("id = ? AND collection = ?", id, collection).First(&rec).Error
	if err != nil {
		return Document{}, mapErr("docstore.Get", collection+"/"+id, err)
	}
	return decodeRecord(rec)
}

func (s *GormStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	patch, err := normalize(fields, time.Now())
	if err != nil {
		return apperr.Wrap("docstore.Update", apperr.ErrValidation, collection+"/"+id, err)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Record
		if err := tx.Where("id = ? AND collection = ?", id, collection).First(&rec).Error; err != nil {
			return err
		}
		doc, err := decodeRecord(rec)
		if err != nil {
			return err
		}
		merged := maps.Clone(doc.Fields)
		maps.Copy(merged, patch)
		raw, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		return tx.Model(&rec).Update("data", string(raw)).Error
	})
	if err != nil {
		return mapErr("docstore.Update", collection+"/"+id, err)
	}
	s.changed(ctx, collection)
	return nil
}

func (s *GormStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	var recs []Record
	err := s.db.WithContext(ctx).Where("collection = ?", collection).Order("created_at asc").Find(&recs).Error
	if err != nil {
		return nil, mapErr("docstore.Query", collection, err)
	}
	docs := make([]Document, 0, len(recs))
	for _, rec := range recs {
		doc, err := decodeRecord(rec)
		if err != nil {
			return nil, mapErr("docstore.Query", collection, err)
		}
		docs = append(docs, doc)
	}
	return apply(docs, q), nil
}

func (s *GormStore) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	return s.hub.subscribe(ctx, collection, func(ctx context.Context) ([]Document, error) {
		return s.Query(ctx, collection, q)
	}), nil
}

// Run relays change notifications published by other processes to local
// subscribers. It returns when ctx ends; without a notifier it only waits.
func (s *GormStore) Run(ctx context.Context) error {
	if s.notifier == nil {
		<-ctx.Done()
		return nil
	}
	return s.notifier.Listen(ctx, s.hub.notify)
}

func (s *GormStore) changed(ctx context.Context, collection string) {
	s.hub.notify(collection)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, collection); err != nil {
		s.log.WithFields(logrus.Fields{"module": "docstore", "collection": collection}).
			Warnf("change notification not published: %v", err)
	}
}

func decodeRecord(rec Record) (Document, error) {
	var f Fields
	if err := json.Unmarshal([]byte(rec.Data), &f); err != nil {
		return Document{}, err
	}
	return Document{ID: rec.ID, Fields: f}, nil
}

func mapErr(op, entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(op, apperr.ErrNotFound, entity)
	}
	return apperr.Wrap(op, apperr.ErrUnavailable, entity, err)
}
