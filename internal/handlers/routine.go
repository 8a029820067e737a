package handlers

import (
	"net/http"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/store"
)

type RoutineHandler struct {
	store store.Store
}

func NewRoutineHandler(st store.Store) *RoutineHandler {
	return &RoutineHandler{store: st}
}

// Get returns the routine as a slot-to-assignment map. Empty map when nothing
// has been planned yet.
func (h *RoutineHandler) Get(w http.ResponseWriter, r *http.Request) {
	routine := map[string]string{}
	if _, err := store.GetJSON(r.Context(), h.store, store.KeyRoutine, &routine); err != nil {
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

// Update replaces the full routine. Slots must come from the fixed set;
// assignments are either a reserved token or a subject id. Empty assignments
// clear the slot.
func (h *RoutineHandler) Update(w http.ResponseWriter, r *http.Request) {
	var routine map[string]string
	if !decodeBody(w, r, &routine) {
		return
	}

	ctx := r.Context()

	var subjects []models.Subject
	if _, err := store.GetJSON(ctx, h.store, store.KeySubjects, &subjects); err != nil {
		internalError(w, r)
		return
	}
	if subjects == nil {
		subjects = models.InitialSubjects
	}
	subjectIDs := map[string]bool{}
	for _, s := range subjects {
		subjectIDs[s.ID] = true
	}

	cleaned := map[string]string{}
	for slot, assignment := range routine {
		if !models.IsValidTimeSlot(slot) {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown time slot: "+slot, r))
			return
		}
		if assignment == "" {
			continue
		}
		if !models.IsReservedRoutineToken(assignment) && !subjectIDs[assignment] {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown routine assignment: "+assignment, r))
			return
		}
		cleaned[slot] = assignment
	}

	if err := store.SetJSON(ctx, h.store, store.KeyRoutine, cleaned); err != nil {
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, cleaned)
}

// Slots returns the fixed slot labels the planner renders.
func (h *RoutineHandler) Slots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.TimeSlots)
}
