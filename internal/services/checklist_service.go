package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/models"
)

// ChecklistProgress summarizes completion over a checklist. Percentage
// counts required items only, unless the checklist has no required
// items, in which case it falls back to all items.
type ChecklistProgress struct {
	TotalItems        int `json:"total_items"`
	CompletedItems    int `json:"completed_items"`
	RequiredItems     int `json:"required_items"`
	CompletedRequired int `json:"completed_required"`
	Percentage        int `json:"percentage"`
}

// ComputeProgress derives progress from checklist items.
func ComputeProgress(items []models.ChecklistItem) ChecklistProgress {
	p := ChecklistProgress{TotalItems: len(items)}
	for _, item := range items {
		if item.Completed {
			p.CompletedItems++
		}
		if !item.IsOptional {
			p.RequiredItems++
			if item.Completed {
				p.CompletedRequired++
			}
		}
	}

	switch {
	case p.RequiredItems > 0:
		p.Percentage = p.CompletedRequired * 100 / p.RequiredItems
	case p.TotalItems > 0:
		p.Percentage = p.CompletedItems * 100 / p.TotalItems
	default:
		p.Percentage = 0
	}
	return p
}

var progressMilestones = []int{25, 50, 75, 100}

// MilestoneReached reports whether percent lands exactly on a progress
// milestone. A percentage between milestones is not one.
func MilestoneReached(percent int) bool {
	for _, m := range progressMilestones {
		if percent == m {
			return true
		}
	}
	return false
}

// defaultTask is one entry of the built-in checklist used when a
// product has no templates configured.
type defaultTask struct {
	Description string
	Optional    bool
}

// defaultItem names one order line for fallback checklist generation.
type defaultItem struct {
	Name string
	Type models.ProductType
}

// defaultTasks builds the fallback checklist: two intake tasks, a
// per-item block for each product line, and three dispatch tasks. The
// per-item block depends on whether the line is a package or a
// campaign.
func defaultTasks(items []defaultItem) []defaultTask {
	tasks := []defaultTask{
		{Description: "Confirm payment received"},
		{Description: "Verify customer contact details"},
	}

	for _, item := range items {
		tasks = append(tasks, defaultTask{
			Description: fmt.Sprintf("Review uploaded resources for %s", item.Name),
		})
		switch item.Type {
		case models.ProductCampaign:
			tasks = append(tasks,
				defaultTask{Description: fmt.Sprintf("Draft campaign plan for %s", item.Name)},
				defaultTask{Description: fmt.Sprintf("Confirm schedule and venues for %s", item.Name)},
				defaultTask{Description: fmt.Sprintf("Brief field team on %s", item.Name), Optional: true},
				defaultTask{Description: fmt.Sprintf("Execute campaign activities for %s", item.Name)},
				defaultTask{Description: fmt.Sprintf("Collect coverage photos for %s", item.Name)},
				defaultTask{Description: fmt.Sprintf("Compile execution report for %s", item.Name)},
			)
		default:
			tasks = append(tasks,
				defaultTask{Description: fmt.Sprintf("Prepare design draft for %s", item.Name)},
				defaultTask{Description: fmt.Sprintf("Share draft with customer for %s", item.Name)},
				defaultTask{Description: fmt.Sprintf("Incorporate revision feedback for %s", item.Name), Optional: true},
				defaultTask{Description: fmt.Sprintf("Finalize production files for %s", item.Name)},
				defaultTask{Description: fmt.Sprintf("Run quality check on %s", item.Name)},
				defaultTask{Description: fmt.Sprintf("Package deliverables for %s", item.Name)},
			)
		}
	}

	tasks = append(tasks,
		defaultTask{Description: "Prepare delivery"},
		defaultTask{Description: "Dispatch order"},
		defaultTask{Description: "Confirm delivery with customer"},
	)
	return tasks
}

// ChecklistService generates and reads order checklists.
type ChecklistService struct {
	db *gorm.DB
}

func NewChecklistService(db *gorm.DB) *ChecklistService {
	return &ChecklistService{db: db}
}

// GenerateForOrder creates the order's checklist inside tx. Generation
// is idempotent: a checklist that already has at least one item is
// returned untouched.
func (s *ChecklistService) GenerateForOrder(tx *gorm.DB, order *models.Order) (*models.OrderChecklist, error) {
	var checklist models.OrderChecklist
	err := tx.Where("order_id = ?", order.ID).First(&checklist).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		checklist = models.OrderChecklist{OrderID: order.ID}
		if err := tx.Create(&checklist).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	var existing int64
	if err := tx.Model(&models.ChecklistItem{}).Where("checklist_id = ?", checklist.ID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return &checklist, nil
	}

	items := order.Items
	if len(items) == 0 {
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return nil, err
		}
	}

	built, err := s.buildItems(tx, checklist.ID, items)
	if err != nil {
		return nil, err
	}
	if len(built) > 0 {
		if err := tx.Create(&built).Error; err != nil {
			return nil, err
		}
	}
	checklist.Items = built

	return &checklist, nil
}

// buildItems merges checklist templates across order items in template
// order, falling back to the default task set when no product on the
// order has templates.
func (s *ChecklistService) buildItems(tx *gorm.DB, checklistID uuid.UUID, orderItems []models.OrderItem) ([]models.ChecklistItem, error) {
	var built []models.ChecklistItem

	for _, item := range orderItems {
		var templates []models.ChecklistTemplateItem
		err := tx.
			Where("product_type = ? AND product_id = ?", item.Product.Type, item.Product.ID).
			Order("sort_order asc").
			Find(&templates).Error
		if err != nil {
			return nil, err
		}

		for _, tpl := range templates {
			tplID := tpl.ID
			built = append(built, models.ChecklistItem{
				ChecklistID:    checklistID,
				TemplateItemID: &tplID,
				Description:    tpl.Name,
				IsOptional:     tpl.IsOptional,
				OrderIndex:     tpl.SortOrder,
			})
		}
	}

	if len(built) == 0 {
		lines := make([]defaultItem, 0, len(orderItems))
		for _, item := range orderItems {
			lines = append(lines, defaultItem{
				Name: s.productName(tx, item.Product),
				Type: item.Product.Type,
			})
		}
		for _, task := range defaultTasks(lines) {
			built = append(built, models.ChecklistItem{
				ChecklistID: checklistID,
				Description: task.Description,
				IsOptional:  task.Optional,
			})
		}
	}

	sort.SliceStable(built, func(i, j int) bool {
		return built[i].OrderIndex < built[j].OrderIndex
	})
	for i := range built {
		built[i].OrderIndex = i
	}
	return built, nil
}

func (s *ChecklistService) productName(tx *gorm.DB, ref models.ProductRef) string {
	switch ref.Type {
	case models.ProductPackage:
		var pkg models.Package
		if err := tx.Select("name").First(&pkg, "id = ?", ref.ID).Error; err == nil {
			return pkg.Name
		}
	case models.ProductCampaign:
		var c models.Campaign
		if err := tx.Select("name").First(&c, "id = ?", ref.ID).Error; err == nil {
			return c.Name
		}
	}
	return "order item"
}

// GetForOrder loads an order's checklist with items and progress. An
// order without a checklist yields a nil checklist and zero progress.
func (s *ChecklistService) GetForOrder(orderID uuid.UUID) (*models.OrderChecklist, ChecklistProgress, error) {
	var checklist models.OrderChecklist
	err := s.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_index asc") }).
		Preload("Items.CompletedBy").
		Where("order_id = ?", orderID).
		First(&checklist).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ChecklistProgress{}, nil
	}
	if err != nil {
		return nil, ChecklistProgress{}, err
	}

	return &checklist, ComputeProgress(checklist.Items), nil
}

// markItem flips one item's completion state inside tx and returns the
// progress before and after.
func markItem(tx *gorm.DB, item *models.ChecklistItem, completed bool, actorID uuid.UUID) (before, after ChecklistProgress, err error) {
	var siblings []models.ChecklistItem
	if err = tx.Where("checklist_id = ?", item.ChecklistID).Find(&siblings).Error; err != nil {
		return
	}
	before = ComputeProgress(siblings)

	item.Completed = completed
	if completed {
		now := time.Now()
		item.CompletedAt = &now
		item.CompletedByID = &actorID
	} else {
		item.CompletedAt = nil
		item.CompletedByID = nil
	}
	if err = tx.Save(item).Error; err != nil {
		return
	}

	for i := range siblings {
		if siblings[i].ID == item.ID {
			siblings[i].Completed = completed
		}
	}
	after = ComputeProgress(siblings)
	return
}
