package store

import (
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type ArchiveQueryFilter BaseQuerier

func NewArchiveQueryFilter() *ArchiveQueryFilter {
	return &ArchiveQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *ArchiveQueryFilter) ByKind(kind string) *ArchiveQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("kind = ?", kind)
	})
	return f
}

func (f *ArchiveQueryFilter) ByStatus(status string) *ArchiveQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return f
}

func (f *ArchiveQueryFilter) ByPath(path string) *ArchiveQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("path = ?", path)
	})
	return f
}

type ArchiveQueryOptions BaseQuerier

func NewArchiveQueryOptions() *ArchiveQueryOptions {
	return &ArchiveQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *ArchiveQueryOptions) WithLimit(limit int) *ArchiveQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Limit(limit)
	})
	return o
}

func (o *ArchiveQueryOptions) WithOffset(offset int) *ArchiveQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(offset)
	})
	return o
}
