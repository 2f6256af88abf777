package sheet

import "time"

// Table is one named grid of the SQL backed store.
type Table struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Table) TableName() string {
	return "sheet_tables"
}

// Row holds the cells of one grid row, serialized as a JSON array of strings.
type Row struct {
	ID        int64     `gorm:"primaryKey"`
	TableID   int64     `gorm:"column:table_id;not null;uniqueIndex:idx_sheet_rows_position"`
	RowNum    int       `gorm:"column:row_num;not null;uniqueIndex:idx_sheet_rows_position"`
	Cells     []string  `gorm:"column:cells;type:text;not null;serializer:json"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Row) TableName() string {
	return "sheet_rows"
}
