package services

import (
	"testing"

	"github.com/example/electioncart/internal/models"
)

func buildItems(total, optional, completed, completedRequired int) []models.ChecklistItem {
	items := make([]models.ChecklistItem, 0, total)
	required := total - optional

	for i := 0; i < required; i++ {
		items = append(items, models.ChecklistItem{Completed: i < completedRequired})
	}
	completedOptional := completed - completedRequired
	for i := 0; i < optional; i++ {
		items = append(items, models.ChecklistItem{IsOptional: true, Completed: i < completedOptional})
	}
	return items
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name  string
		items []models.ChecklistItem
		want  ChecklistProgress
	}{
		{
			name:  "empty checklist",
			items: nil,
			want:  ChecklistProgress{},
		},
		{
			name:  "mixed optional and required",
			items: buildItems(10, 4, 5, 3),
			want: ChecklistProgress{
				TotalItems:        10,
				CompletedItems:    5,
				RequiredItems:     6,
				CompletedRequired: 3,
				Percentage:        50,
			},
		},
		{
			name:  "all required complete",
			items: buildItems(4, 0, 4, 4),
			want: ChecklistProgress{
				TotalItems:        4,
				CompletedItems:    4,
				RequiredItems:     4,
				CompletedRequired: 4,
				Percentage:        100,
			},
		},
		{
			name:  "percentage truncates",
			items: buildItems(3, 0, 1, 1),
			want: ChecklistProgress{
				TotalItems:        3,
				CompletedItems:    1,
				RequiredItems:     3,
				CompletedRequired: 1,
				Percentage:        33,
			},
		},
		{
			name:  "all optional falls back to total",
			items: buildItems(4, 4, 2, 0),
			want: ChecklistProgress{
				TotalItems:     4,
				CompletedItems: 2,
				RequiredItems:  0,
				Percentage:     50,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(tt.items)
			if got != tt.want {
				t.Errorf("ComputeProgress() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMilestoneReached(t *testing.T) {
	tests := []struct {
		percent int
		want    bool
	}{
		{0, false},
		{25, true},
		{33, false},
		{50, true},
		{66, false},
		{75, true},
		{80, false},
		{100, true},
	}

	for _, tt := range tests {
		if got := MilestoneReached(tt.percent); got != tt.want {
			t.Errorf("MilestoneReached(%d) = %v, want %v", tt.percent, got, tt.want)
		}
	}
}

func TestDefaultTasks(t *testing.T) {
	one := defaultTasks([]defaultItem{{Name: "Premium Package", Type: models.ProductPackage}})
	if len(one) != 12 {
		t.Fatalf("one item: got %d tasks, want 12", len(one))
	}

	optional := 0
	for _, task := range one {
		if task.Optional {
			optional++
		}
	}
	if optional != 1 {
		t.Errorf("one item: got %d optional tasks, want 1", optional)
	}

	if one[0].Description != "Confirm payment received" {
		t.Errorf("unexpected first task %q", one[0].Description)
	}
	if one[len(one)-1].Description != "Confirm delivery with customer" {
		t.Errorf("unexpected last task %q", one[len(one)-1].Description)
	}

	two := defaultTasks([]defaultItem{
		{Name: "Premium Package", Type: models.ProductPackage},
		{Name: "Door-to-Door Campaign", Type: models.ProductCampaign},
	})
	if len(two) != 19 {
		t.Errorf("two items: got %d tasks, want 19", len(two))
	}

	campaignBlock := two[9:16]
	if campaignBlock[1].Description != "Draft campaign plan for Door-to-Door Campaign" {
		t.Errorf("unexpected campaign task %q", campaignBlock[1].Description)
	}

	none := defaultTasks(nil)
	if len(none) != 5 {
		t.Errorf("no items: got %d tasks, want 5", len(none))
	}
}
