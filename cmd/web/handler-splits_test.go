package main

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maxscottrutherford/LiftIQ-sub000/internal/workout"
)

func Test_application_splits(t *testing.T) {
	var (
		server = startServer(t)
		client = newUser(t, server, "splits")
		split  workout.Split
	)

	push := workout.SplitDay{
		Name: "Push",
		Exercises: []workout.PlannedExercise{
			{ExerciseID: "bench-press", Name: "Bench Press", Sets: 3, MinReps: 5, MaxReps: 8, WarmupSets: 1},
		},
	}

	t.Run("Create", func(t *testing.T) {
		expectStatus(t, client, http.MethodPost, "/api/splits",
			workout.Split{Name: "Push Pull Legs", Days: []workout.SplitDay{push}}, &split, http.StatusCreated)
		if split.ID == "" || len(split.Days) != 1 || split.Days[0].ID == "" {
			t.Fatalf("Expected ids to be assigned, got %+v", split)
		}
	})

	t.Run("Reject invalid", func(t *testing.T) {
		expectStatus(t, client, http.MethodPost, "/api/splits", workout.Split{Name: "  "}, nil, http.StatusBadRequest)
		expectStatus(t, client, http.MethodPost, "/api/splits", map[string]string{"unknown": "field"}, nil,
			http.StatusBadRequest)
	})

	t.Run("List and get", func(t *testing.T) {
		var splits []workout.Split
		expectStatus(t, client, http.MethodGet, "/api/splits", nil, &splits, http.StatusOK)
		if len(splits) != 1 {
			t.Fatalf("Expected 1 split, got %d", len(splits))
		}
		var got workout.Split
		expectStatus(t, client, http.MethodGet, "/api/splits/"+split.ID, nil, &got, http.StatusOK)
		if diff := cmp.Diff(split.Days, got.Days); diff != "" {
			t.Errorf("Days mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Update", func(t *testing.T) {
		var updated workout.Split
		expectStatus(t, client, http.MethodPut, "/api/splits/"+split.ID,
			workout.Split{Name: "PPL", Description: "six days", Days: split.Days}, &updated, http.StatusOK)
		if updated.Name != "PPL" || updated.Description != "six days" || updated.ID != split.ID {
			t.Errorf("Unexpected update result %+v", updated)
		}
	})

	t.Run("Generate without planner", func(t *testing.T) {
		expectStatus(t, client, http.MethodPost, "/api/splits/generate",
			workout.PlanRequest{Goal: "strength", DaysPerWeek: 3}, nil, http.StatusServiceUnavailable)
	})

	t.Run("Other users cannot see the split", func(t *testing.T) {
		other := newUser(t, server, "other")
		expectStatus(t, other, http.MethodGet, "/api/splits/"+split.ID, nil, nil, http.StatusNotFound)
		expectStatus(t, other, http.MethodDelete, "/api/splits/"+split.ID, nil, nil, http.StatusNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		expectStatus(t, client, http.MethodDelete, "/api/splits/"+split.ID, nil, nil, http.StatusNoContent)
		expectStatus(t, client, http.MethodGet, "/api/splits/"+split.ID, nil, nil, http.StatusNotFound)
	})
}
