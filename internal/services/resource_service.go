package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/errs"
	"github.com/example/electioncart/internal/events"
	"github.com/example/electioncart/internal/models"
	"github.com/example/electioncart/internal/storage"
)

// resourceSubmittableStatuses are the order statuses in which customers
// may still add or replace resources.
var resourceSubmittableStatuses = map[models.OrderStatus]bool{
	models.StatusPendingResources:   true,
	models.StatusReadyForProcessing: true,
}

// ResourceService owns the per-product resource schema and customer
// submissions against it.
type ResourceService struct {
	db        *gorm.DB
	store     storage.FileStore
	producer  *events.TaskProducer
	lifecycle *LifecycleService
}

func NewResourceService(db *gorm.DB, store storage.FileStore, producer *events.TaskProducer, lifecycle *LifecycleService) *ResourceService {
	return &ResourceService{
		db:        db,
		store:     store,
		producer:  producer,
		lifecycle: lifecycle,
	}
}

// ListFields returns a product's field definitions in display order.
func (s *ResourceService) ListFields(ref models.ProductRef) ([]models.ResourceFieldDefinition, error) {
	var defs []models.ResourceFieldDefinition
	err := s.db.
		Where("product_type = ? AND product_id = ?", ref.Type, ref.ID).
		Order("sort_order asc").
		Find(&defs).Error
	return defs, err
}

// CreateField adds a field definition. Field names are unique per
// product.
func (s *ResourceService) CreateField(actor models.Actor, def models.ResourceFieldDefinition) (*models.ResourceFieldDefinition, error) {
	if actor.Role != models.RoleAdmin {
		return nil, errs.Permission("only admins can manage resource fields")
	}
	if def.FieldName == "" {
		return nil, errs.Validation("field_name is required")
	}
	if !def.FieldType.Valid() {
		return nil, errs.Validation(fmt.Sprintf("unknown field type %q", def.FieldType))
	}
	if !def.Product.Type.Valid() {
		return nil, errs.Validation("unknown product type")
	}
	if msg := ValidateDefinition(def); msg != "" {
		return nil, errs.Validation(msg)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.ResourceFieldDefinition{}).
			Where("product_type = ? AND product_id = ? AND field_name = ?", def.Product.Type, def.Product.ID, def.FieldName).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return errs.Conflict(fmt.Sprintf("field %q already exists for this product", def.FieldName))
		}
		return tx.Create(&def).Error
	})
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// UpdateField edits a field definition, keeping names unique.
func (s *ResourceService) UpdateField(actor models.Actor, id uuid.UUID, updated models.ResourceFieldDefinition) (*models.ResourceFieldDefinition, error) {
	if actor.Role != models.RoleAdmin {
		return nil, errs.Permission("only admins can manage resource fields")
	}
	if updated.FieldType != "" && !updated.FieldType.Valid() {
		return nil, errs.Validation(fmt.Sprintf("unknown field type %q", updated.FieldType))
	}

	var def models.ResourceFieldDefinition
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&def, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFound("field definition")
			}
			return err
		}

		if updated.FieldName != "" && updated.FieldName != def.FieldName {
			var count int64
			err := tx.Model(&models.ResourceFieldDefinition{}).
				Where("product_type = ? AND product_id = ? AND field_name = ? AND id <> ?",
					def.Product.Type, def.Product.ID, updated.FieldName, def.ID).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return errs.Conflict(fmt.Sprintf("field %q already exists for this product", updated.FieldName))
			}
			def.FieldName = updated.FieldName
		}

		if updated.FieldType != "" {
			def.FieldType = updated.FieldType
		}
		def.IsRequired = updated.IsRequired
		def.SortOrder = updated.SortOrder
		def.HelpText = updated.HelpText
		def.MaxFileSizeMB = updated.MaxFileSizeMB
		def.MaxLength = updated.MaxLength
		def.MinValue = updated.MinValue
		def.MaxValue = updated.MaxValue
		def.AllowedExtensions = updated.AllowedExtensions

		if msg := ValidateDefinition(def); msg != "" {
			return errs.Validation(msg)
		}
		return tx.Save(&def).Error
	})
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// DeleteField removes a field definition. Definitions that already
// have customer submissions cannot be deleted.
func (s *ResourceService) DeleteField(actor models.Actor, id uuid.UUID) error {
	if actor.Role != models.RoleAdmin {
		return errs.Permission("only admins can manage resource fields")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var def models.ResourceFieldDefinition
		if err := tx.First(&def, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFound("field definition")
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.DynamicResourceSubmission{}).Where("field_definition_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errs.Conflict("field has customer submissions and cannot be deleted")
		}

		return tx.Delete(&def).Error
	})
}

// ReorderFields rewrites the display order of a product's fields. The
// id list must cover exactly the product's definitions.
func (s *ResourceService) ReorderFields(actor models.Actor, ref models.ProductRef, orderedIDs []uuid.UUID) ([]models.ResourceFieldDefinition, error) {
	if actor.Role != models.RoleAdmin {
		return nil, errs.Permission("only admins can manage resource fields")
	}

	var defs []models.ResourceFieldDefinition
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.ListFields(ref)
		if err != nil {
			return err
		}
		if len(orderedIDs) != len(existing) {
			return errs.Validation("reorder must list every field exactly once")
		}

		byID := make(map[uuid.UUID]*models.ResourceFieldDefinition, len(existing))
		for i := range existing {
			byID[existing[i].ID] = &existing[i]
		}

		seen := make(map[uuid.UUID]bool, len(orderedIDs))
		for position, id := range orderedIDs {
			def, ok := byID[id]
			if !ok {
				return errs.Validation("reorder references a field outside this product")
			}
			if seen[id] {
				return errs.Validation("reorder lists a field twice")
			}
			seen[id] = true
			if err := tx.Model(def).Update("sort_order", position).Error; err != nil {
				return err
			}
			def.SortOrder = position
		}

		defs = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}

// ItemUploadStatus is one order item's resource progress.
type ItemUploadStatus struct {
	OrderItemID       uuid.UUID `json:"order_item_id"`
	ProductName       string    `json:"product_name"`
	ResourcesUploaded bool      `json:"resources_uploaded"`
	RequiredFields    int       `json:"required_fields"`
	SubmittedFields   int       `json:"submitted_fields"`
}

// UploadStatus reports per item how far resource collection has come.
func (s *ResourceService) UploadStatus(actor models.Actor, orderID uuid.UUID) ([]ItemUploadStatus, int, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, errs.NotFound("order")
		}
		return nil, 0, err
	}
	if order.UserID != actor.ID && !actor.Role.IsStaffOrAdmin() {
		return nil, 0, errs.Permission("you do not own this order")
	}

	statuses := make([]ItemUploadStatus, 0, len(order.Items))
	for _, item := range order.Items {
		product, err := ResolveProduct(s.db, item.Product)
		name := "order item"
		if err == nil {
			name = product.Name
		}

		var required int64
		if err := s.db.Model(&models.ResourceFieldDefinition{}).
			Where("product_type = ? AND product_id = ? AND is_required", item.Product.Type, item.Product.ID).
			Count(&required).Error; err != nil {
			return nil, 0, err
		}

		var submitted int64
		if err := s.db.Model(&models.DynamicResourceSubmission{}).
			Where("order_item_id = ?", item.ID).
			Count(&submitted).Error; err != nil {
			return nil, 0, err
		}

		statuses = append(statuses, ItemUploadStatus{
			OrderItemID:       item.ID,
			ProductName:       name,
			ResourcesUploaded: item.ResourcesUploaded,
			RequiredFields:    int(required),
			SubmittedFields:   int(submitted),
		})
	}
	return statuses, order.ResourceUploadProgress(), nil
}

// SubmitDynamic validates and stores a customer's field inputs for one
// order item. Validation reports every failing field at once, and any
// failure rolls the whole submission back.
func (s *ResourceService) SubmitDynamic(actor models.Actor, orderItemID uuid.UUID, inputs map[string]FieldInput) (*models.Order, error) {
	var order *models.Order
	var savedHandles []string
	var imageHandles []string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.First(&item, "id = ?", orderItemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFound("order item")
			}
			return err
		}

		locked, err := lockOrder(tx, item.OrderID)
		if err != nil {
			return err
		}
		if locked.UserID != actor.ID && !actor.Role.IsStaffOrAdmin() {
			return errs.Permission("you do not own this order")
		}
		if !resourceSubmittableStatuses[locked.Status] {
			return errs.Conflict(fmt.Sprintf("resources cannot be changed while the order is %s", locked.Status))
		}

		defs, err := s.ListFields(item.Product)
		if err != nil {
			return err
		}

		toStore, fieldErrors := validateSubmission(defs, inputs)
		if len(fieldErrors) > 0 {
			return errs.ValidationFields("resource validation failed", fieldErrors)
		}

		for _, p := range toStore {
			value := p.validated.Value
			if p.validated.Upload != nil {
				handle, err := s.store.Save("resources", p.validated.Upload.Filename, p.validated.Upload.Content)
				if err != nil {
					return err
				}
				savedHandles = append(savedHandles, handle)
				if p.def.FieldType == models.FieldImage {
					imageHandles = append(imageHandles, handle)
				}
				value = models.FileValue(handle)
			}

			if err := upsertSubmission(tx, item.ID, p.def.ID, value); err != nil {
				return err
			}
		}

		if err := s.markUploadedTx(tx, actor, &item, locked); err != nil {
			return err
		}

		order = locked
		return nil
	})
	if err != nil {
		for _, handle := range savedHandles {
			if delErr := s.store.Delete(handle); delErr != nil {
				log.Printf("[Resources] failed to clean up %s: %v", handle, delErr)
			}
		}
		return nil, err
	}

	ctx := context.Background()
	for _, handle := range imageHandles {
		if _, err := s.producer.Enqueue(ctx, events.TaskImageThumbnail, order.ID.String(), map[string]string{"handle": handle}); err != nil {
			log.Printf("[Resources] failed to enqueue thumbnail for %s: %v", handle, err)
		}
	}
	return order, nil
}

// upsertSubmission keeps one row per (item, field) pair.
func upsertSubmission(tx *gorm.DB, itemID, defID uuid.UUID, value models.FieldValue) error {
	var submission models.DynamicResourceSubmission
	err := tx.Where("order_item_id = ? AND field_definition_id = ?", itemID, defID).First(&submission).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		submission = models.DynamicResourceSubmission{
			OrderItemID:       itemID,
			FieldDefinitionID: defID,
		}
		submission.SetValue(value)
		return tx.Create(&submission).Error
	case err != nil:
		return err
	}

	submission.SetValue(value)
	return tx.Save(&submission).Error
}

// LegacyResourceInput is the fixed-shape resource form kept for
// products without a configured schema.
type LegacyResourceInput struct {
	CandidatePhoto  *FileUpload
	PartyLogo       *FileUpload
	CampaignSlogan  string
	PreferredDate   string
	WhatsAppNumber  string
	AdditionalNotes string
}

// SubmitLegacy stores the fixed resource set for one order item.
func (s *ResourceService) SubmitLegacy(actor models.Actor, orderItemID uuid.UUID, in LegacyResourceInput) (*models.Order, error) {
	var order *models.Order
	var savedHandles []string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.First(&item, "id = ?", orderItemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errs.NotFound("order item")
			}
			return err
		}

		locked, err := lockOrder(tx, item.OrderID)
		if err != nil {
			return err
		}
		if locked.UserID != actor.ID && !actor.Role.IsStaffOrAdmin() {
			return errs.Permission("you do not own this order")
		}
		if !resourceSubmittableStatuses[locked.Status] {
			return errs.Conflict(fmt.Sprintf("resources cannot be changed while the order is %s", locked.Status))
		}

		fieldErrors := make(map[string]string)

		imageDef := models.ResourceFieldDefinition{FieldType: models.FieldImage, IsRequired: true}
		photo, msg := ValidateField(imageDef, FieldInput{File: in.CandidatePhoto})
		if msg != "" {
			fieldErrors["candidate_photo"] = msg
		}
		logo, msg := ValidateField(imageDef, FieldInput{File: in.PartyLogo})
		if msg != "" {
			fieldErrors["party_logo"] = msg
		}

		phoneDef := models.ResourceFieldDefinition{FieldType: models.FieldPhone, IsRequired: true}
		phone, msg := ValidateField(phoneDef, FieldInput{Text: in.WhatsAppNumber})
		if msg != "" {
			fieldErrors["whatsapp_number"] = msg
		}

		if in.PreferredDate != "" {
			dateDef := models.ResourceFieldDefinition{FieldType: models.FieldDate}
			if _, msg := ValidateField(dateDef, FieldInput{Text: in.PreferredDate}); msg != "" {
				fieldErrors["preferred_date"] = msg
			}
		}

		if len(fieldErrors) > 0 {
			return errs.ValidationFields("resource validation failed", fieldErrors)
		}

		photoHandle, err := s.store.Save("resources", photo.Upload.Filename, photo.Upload.Content)
		if err != nil {
			return err
		}
		savedHandles = append(savedHandles, photoHandle)
		logoHandle, err := s.store.Save("resources", logo.Upload.Filename, logo.Upload.Content)
		if err != nil {
			return err
		}
		savedHandles = append(savedHandles, logoHandle)

		var resource models.OrderResource
		err = tx.Where("order_item_id = ?", item.ID).First(&resource).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		isNew := err == gorm.ErrRecordNotFound

		resource.OrderItemID = item.ID
		resource.CandidatePhoto = photoHandle
		resource.PartyLogo = logoHandle
		resource.CampaignSlogan = in.CampaignSlogan
		resource.PreferredDate = in.PreferredDate
		resource.WhatsAppNumber = phone.Value.Text()
		resource.AdditionalNotes = in.AdditionalNotes

		if isNew {
			if err := tx.Create(&resource).Error; err != nil {
				return err
			}
		} else if err := tx.Save(&resource).Error; err != nil {
			return err
		}

		if err := s.markUploadedTx(tx, actor, &item, locked); err != nil {
			return err
		}

		order = locked
		return nil
	})
	if err != nil {
		for _, handle := range savedHandles {
			if delErr := s.store.Delete(handle); delErr != nil {
				log.Printf("[Resources] failed to clean up %s: %v", handle, delErr)
			}
		}
		return nil, err
	}
	return order, nil
}

// markUploadedTx marks the item complete and advances the order once
// every item has its resources.
func (s *ResourceService) markUploadedTx(tx *gorm.DB, actor models.Actor, item *models.OrderItem, order *models.Order) error {
	if !item.ResourcesUploaded {
		item.ResourcesUploaded = true
		if err := tx.Model(item).Update("resources_uploaded", true).Error; err != nil {
			return err
		}
	}

	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}
	order.Items = items

	if order.Status == models.StatusPendingResources && order.AllResourcesUploaded() {
		return s.lifecycle.TransitionTx(tx, order, models.StatusReadyForProcessing, actor, "all resources uploaded", false)
	}
	return nil
}
