package services

import (
	"reflect"
	"testing"

	"github.com/example/electioncart/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from models.OrderStatus
		to   models.OrderStatus
		want bool
	}{
		{"payment confirmed", models.StatusPendingPayment, models.StatusPendingResources, true},
		{"cancel before payment", models.StatusPendingPayment, models.StatusCancelled, true},
		{"skip resource gate", models.StatusPendingPayment, models.StatusReadyForProcessing, false},
		{"resources complete", models.StatusPendingResources, models.StatusReadyForProcessing, true},
		{"assign", models.StatusReadyForProcessing, models.StatusAssigned, true},
		{"unassign", models.StatusAssigned, models.StatusReadyForProcessing, true},
		{"start work", models.StatusAssigned, models.StatusInProgress, true},
		{"complete", models.StatusInProgress, models.StatusCompleted, true},
		{"complete without work", models.StatusAssigned, models.StatusCompleted, false},
		{"hold during work", models.StatusInProgress, models.StatusOnHold, true},
		{"resume from hold", models.StatusOnHold, models.StatusInProgress, true},
		{"reopen completed", models.StatusCompleted, models.StatusInProgress, false},
		{"revive cancelled", models.StatusCancelled, models.StatusPendingPayment, false},
		{"same status", models.StatusInProgress, models.StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, terminal := range []models.OrderStatus{models.StatusCompleted, models.StatusCancelled} {
		for _, to := range models.OrderStatuses {
			if CanTransition(terminal, to) {
				t.Errorf("terminal status %s has edge to %s", terminal, to)
			}
		}
	}
}

func TestChecklistTransitions(t *testing.T) {
	tests := []struct {
		name       string
		status     models.OrderStatus
		percentage int
		want       []models.OrderStatus
	}{
		{"optional item only, no required progress", models.StatusAssigned, 0, nil},
		{"first required item", models.StatusAssigned, 33, []models.OrderStatus{models.StatusInProgress}},
		{"assigned straight to done", models.StatusAssigned, 100, []models.OrderStatus{models.StatusInProgress, models.StatusCompleted}},
		{"in progress, partial", models.StatusInProgress, 50, nil},
		{"in progress, done", models.StatusInProgress, 100, []models.OrderStatus{models.StatusCompleted}},
		{"not yet assigned", models.StatusReadyForProcessing, 100, nil},
		{"on hold", models.StatusOnHold, 100, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checklistTransitions(tt.status, tt.percentage)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("checklistTransitions(%s, %d) = %v, want %v", tt.status, tt.percentage, got, tt.want)
			}
		})
	}
}

func TestNonTerminalStatusesCanCancel(t *testing.T) {
	for _, from := range models.OrderStatuses {
		if from.Terminal() {
			continue
		}
		if !CanTransition(from, models.StatusCancelled) {
			t.Errorf("status %s cannot be cancelled", from)
		}
	}
}
