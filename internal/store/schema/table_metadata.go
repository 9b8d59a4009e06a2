package schema

import "time"

// TableMetadata represents the table_metadata table - the catalog entry
// describing one ingestion target table.
type TableMetadata struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Name is the target table name referenced by webhook_receivers.target_table
	Name string `gorm:"column:table_name;not null;unique;type:varchar(255)"`
	// IDColumn is the identity column used for upsert conflict resolution.
	// Nil when the table has no natural identity column; only inserts are
	// possible then.
	IDColumn *string `gorm:"column:id_column;type:varchar(255)"`
	// CreatedAt is the timestamp when this catalog entry was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TableMetadata model
func (TableMetadata) TableName() string {
	return "table_metadata"
}

// TableField represents the table_fields table - one known column of a
// catalogued target table. Field names are unique within a table.
type TableField struct {
	// ID is an auto-incrementing sequence number
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Table is the catalogued table this field belongs to
	Table string `gorm:"column:table_name;not null;type:varchar(255);uniqueIndex:idx_table_field"`
	// FieldName is the column name in the target table
	FieldName string `gorm:"column:field_name;not null;type:varchar(255);uniqueIndex:idx_table_field"`
	// Format is the declared type tag for the column (e.g. text, numeric)
	Format string `gorm:"column:format;type:varchar(64)"`
	// IsPrimaryKey marks the column as part of the table's primary key
	IsPrimaryKey bool `gorm:"column:is_primary_key;not null;default:false"`
	// IsNullable marks the column as accepting NULL
	IsNullable bool `gorm:"column:is_nullable;not null;default:true"`
}

// TableName specifies the table name for the TableField model
func (TableField) TableName() string {
	return "table_fields"
}
