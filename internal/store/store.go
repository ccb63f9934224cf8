package store

import (
	"gorm.io/gorm"
)

type Store interface {
	Archive() Archive
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db      *gorm.DB
	archive Archive
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:      db,
		archive: NewArchive(db),
	}
}

func (s *DataStore) Archive() Archive {
	return s.archive
}

func (s *DataStore) InitialMigration() error {
	return s.archive.InitialMigration()
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
