package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProductType discriminates the two sellable product kinds.
type ProductType string

const (
	ProductPackage  ProductType = "package"
	ProductCampaign ProductType = "campaign"
)

// Valid reports whether the discriminant names a known product kind.
func (t ProductType) Valid() bool {
	return t == ProductPackage || t == ProductCampaign
}

// ProductRef is a tagged reference to a package or campaign. It replaces
// the generic foreign key of the admin panel era: dispatch happens on the
// Type discriminant, never by reflection.
type ProductRef struct {
	Type ProductType `gorm:"column:product_type;index" json:"product_type"`
	ID   uuid.UUID   `gorm:"column:product_id;type:uuid;index" json:"product_id"`
}

// Package is a bundled campaign-services product.
type Package struct {
	BaseModel
	Name         string          `json:"name"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2)" json:"price"`
	Description  string          `json:"description"`
	Features     []byte          `gorm:"type:jsonb" json:"features"`
	Deliverables []byte          `gorm:"type:jsonb" json:"deliverables"`
	IsActive     bool            `gorm:"default:true;index" json:"is_active"`
	IsPopular    bool            `gorm:"default:false" json:"is_popular"`
	PopularOrder int             `json:"popular_order"`
	CreatedByID  *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
}

// Campaign is a single campaign activity sold per unit.
type Campaign struct {
	BaseModel
	Name         string          `json:"name"`
	Price        decimal.Decimal `gorm:"type:numeric(10,2)" json:"price"`
	Unit         string          `json:"unit"`
	Description  string          `json:"description"`
	Features     []byte          `gorm:"type:jsonb" json:"features"`
	Deliverables []byte          `gorm:"type:jsonb" json:"deliverables"`
	IsActive     bool            `gorm:"default:true;index" json:"is_active"`
	IsPopular    bool            `gorm:"default:false" json:"is_popular"`
	PopularOrder int             `json:"popular_order"`
	CreatedByID  *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
}

// FieldType enumerates the value kinds a resource field may collect.
type FieldType string

const (
	FieldImage    FieldType = "image"
	FieldDocument FieldType = "document"
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldPhone    FieldType = "phone"
	FieldDate     FieldType = "date"
)

// Valid reports whether the field type is one of the supported kinds.
func (t FieldType) Valid() bool {
	switch t {
	case FieldImage, FieldDocument, FieldText, FieldNumber, FieldPhone, FieldDate:
		return true
	}
	return false
}

// IsFile reports whether submissions for this type carry an upload.
func (t FieldType) IsFile() bool {
	return t == FieldImage || t == FieldDocument
}

// ResourceFieldDefinition configures one typed field a product requires
// customers to fill in before fulfilment can start. (product, field_name)
// is unique; the conflict check runs before creation.
type ResourceFieldDefinition struct {
	BaseModel
	Product       ProductRef `gorm:"embedded" json:"product"`
	FieldName     string     `json:"field_name"`
	FieldType     FieldType  `json:"field_type"`
	IsRequired    bool       `gorm:"default:true" json:"is_required"`
	SortOrder     int        `gorm:"index" json:"order"`
	HelpText      string     `json:"help_text"`
	MaxFileSizeMB *int       `json:"max_file_size_mb"`
	MaxLength     *int       `json:"max_length"`
	MinValue      *int64     `json:"min_value"`
	MaxValue      *int64     `json:"max_value"`
	// Extension whitelist for document fields, e.g. {".pdf", ".docx"}.
	AllowedExtensions pq.StringArray `gorm:"type:text[]" json:"allowed_extensions"`
}

// ChecklistTemplateItem is a fulfilment task template attached to a
// product; order checklists are generated from these when present.
type ChecklistTemplateItem struct {
	BaseModel
	Product                  ProductRef `gorm:"embedded" json:"product"`
	Name                     string     `json:"name"`
	Description              string     `json:"description"`
	SortOrder                int        `gorm:"index" json:"order"`
	IsOptional               bool       `gorm:"default:false" json:"is_optional"`
	EstimatedDurationMinutes *int       `json:"estimated_duration_minutes"`
}
