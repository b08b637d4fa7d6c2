package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is implemented by every persisted model.
type Record interface {
	TableName() string
	PrimaryKey() uint
}

// Handle is either a *Database or a *Tx.
type Handle interface {
	conn(ctx context.Context) (*gorm.DB, error)
}

// indexes lists the secondary indexes queryable per collection.
var indexes = map[string][]string{
	"clientes":   {"cpf", "nome"},
	"cartoes":    {"cliente_id", "numero_cartao"},
	"compras":    {"cartao_id"},
	"pagamentos": {"compra_id", "status", "data_vencimento"},
}

func collectionOf[T Record]() string {
	var zero T
	return zero.TableName()
}

// Insert stores rec and returns its assigned key.
func Insert[T Record](ctx context.Context, h Handle, rec *T) (uint, error) {
	collection := collectionOf[T]()
	db, err := h.conn(ctx)
	if err != nil {
		return 0, err
	}
	if err := db.Create(rec).Error; err != nil {
		return 0, translateError(collection, "insert", err)
	}
	return (*rec).PrimaryKey(), nil
}

// InsertBatch stores all records; keys are written back into recs.
func InsertBatch[T Record](ctx context.Context, h Handle, recs []T) error {
	if len(recs) == 0 {
		return nil
	}
	collection := collectionOf[T]()
	db, err := h.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(&recs).Error; err != nil {
		return translateError(collection, "insert", err)
	}
	return nil
}

// GetAll returns every record of the collection in key order.
func GetAll[T Record](ctx context.Context, h Handle) ([]T, error) {
	collection := collectionOf[T]()
	db, err := h.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := db.Order("id").Find(&out).Error; err != nil {
		return nil, translateError(collection, "scan", err)
	}
	return out, nil
}

// GetByID returns the record with the given key or a *NotFoundError.
func GetByID[T Record](ctx context.Context, h Handle, id uint) (*T, error) {
	collection := collectionOf[T]()
	db, err := h.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out T
	if err := db.First(&out, id).Error; err != nil {
		return nil, translateError(collection, "get", err)
	}
	return &out, nil
}

// GetByIndex returns the records whose indexed column equals value, in key order.
func GetByIndex[T Record](ctx context.Context, h Handle, index string, value interface{}) ([]T, error) {
	collection := collectionOf[T]()
	if !hasIndex(collection, index) {
		return nil, fmt.Errorf("%s.%s: %w", collection, index, ErrUnknownIndex)
	}
	db, err := h.conn(ctx)
	if err != nil {
		return nil, err
	}
	var out []T
	err = db.Where(clause.Eq{Column: clause.Column{Name: index}, Value: value}).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, translateError(collection, "query", err)
	}
	return out, nil
}

// Update merges fields (column -> value) into the record with the given key
// and returns the stored result.
func Update[T Record](ctx context.Context, h Handle, id uint, fields map[string]interface{}) (*T, error) {
	collection := collectionOf[T]()
	db, err := h.conn(ctx)
	if err != nil {
		return nil, err
	}

	var out T
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, id).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&out).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&out, id).Error
	})
	if err != nil {
		return nil, translateError(collection, "update", err)
	}
	return &out, nil
}

func hasIndex(collection, index string) bool {
	for _, name := range indexes[collection] {
		if name == index {
			return true
		}
	}
	return false
}
