package api

import (
	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoutineHandler serves routine authoring, activation and member views.
type RoutineHandler struct {
	routineService    service.RoutineService
	activationService service.ActivationService
	catalogService    service.CatalogService
}

func NewRoutineHandler(routineService service.RoutineService, activationService service.ActivationService, catalogService service.CatalogService) *RoutineHandler {
	return &RoutineHandler{
		routineService:    routineService,
		activationService: activationService,
		catalogService:    catalogService,
	}
}

// --- DTOs for API (Data Transfer Objects) ---

// RoutineExerciseRequest is one schedule slot as submitted by a trainer.
// Fields are validated by the service so every broken entry is reported at once.
type RoutineExerciseRequest struct {
	ExerciseID  string   `json:"exerciseId"`
	DayOfWeek   int      `json:"dayOfWeek"`
	Order       *int     `json:"order"`
	Sets        int      `json:"sets"`
	Reps        int      `json:"reps"`
	RestSeconds int      `json:"restSeconds"`
	WeightKg    *float64 `json:"weightKg"`
	Notes       string   `json:"notes"`
}

type CreateRoutineRequest struct {
	MemberID      string                   `json:"memberId" binding:"required"`
	TrainerID     string                   `json:"trainerId"` // Admins only; trainers always author their own
	Name          string                   `json:"name" binding:"required"`
	Description   string                   `json:"description"`
	Goal          string                   `json:"goal"`
	DurationWeeks int                      `json:"durationWeeks"`
	Exercises     []RoutineExerciseRequest `json:"exercises"`
}

// UpdateRoutineRequest patches only the fields present in the body.
// A present exercises list replaces the whole schedule.
type UpdateRoutineRequest struct {
	Name            *string                   `json:"name"`
	Description     *string                   `json:"description"`
	Goal            *string                   `json:"goal"`
	DurationWeeks   *int                      `json:"durationWeeks"`
	Exercises       *[]RoutineExerciseRequest `json:"exercises"`
	ExpectedVersion *int64                    `json:"expectedVersion"`
}

// AddRoutineExerciseRequest appends (or inserts at position) one slot on the path's day.
type AddRoutineExerciseRequest struct {
	RoutineExerciseRequest
	Position *int `json:"position"`
}

type RoutineExerciseResponse struct {
	ID           string   `json:"id"`
	ExerciseID   string   `json:"exerciseId"`
	ExerciseName string   `json:"exerciseName,omitempty"`
	DayOfWeek    int      `json:"dayOfWeek"`
	DayName      string   `json:"dayName"`
	Order        int      `json:"order"`
	Sets         int      `json:"sets"`
	Reps         int      `json:"reps"`
	RestSeconds  int      `json:"restSeconds"`
	WeightKg     *float64 `json:"weightKg,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

type RoutineResponse struct {
	ID            string                    `json:"id"`
	MemberID      string                    `json:"memberId"`
	TrainerID     string                    `json:"trainerId"`
	Name          string                    `json:"name"`
	Description   string                    `json:"description,omitempty"`
	Goal          string                    `json:"goal,omitempty"`
	DurationWeeks int                       `json:"durationWeeks"`
	IsActive      bool                      `json:"isActive"`
	NotifiedAt    *time.Time                `json:"notifiedAt,omitempty"`
	Exercises     []RoutineExerciseResponse `json:"exercises"`
	Version       int64                     `json:"version"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

type NotifyResponse struct {
	Routine       RoutineResponse `json:"routine"`
	NotifiedAt    time.Time       `json:"notifiedAt"`
	Delivered     bool            `json:"delivered"`
	DeliveryError string          `json:"deliveryError,omitempty"`
}

// MapRoutineExerciseToResponse converts one schedule entry. names may be nil.
func MapRoutineExerciseToResponse(e domain.RoutineExercise, names map[primitive.ObjectID]domain.Exercise) RoutineExerciseResponse {
	resp := RoutineExerciseResponse{
		ID:          e.ID.Hex(),
		ExerciseID:  e.ExerciseID.Hex(),
		DayOfWeek:   int(e.DayOfWeek),
		DayName:     e.DayOfWeek.String(),
		Order:       e.Order,
		Sets:        e.Sets,
		Reps:        e.Reps,
		RestSeconds: e.RestSeconds,
		WeightKg:    e.WeightKg,
		Notes:       e.Notes,
	}
	if ex, ok := names[e.ExerciseID]; ok {
		resp.ExerciseName = ex.Name
	}
	return resp
}

func MapRoutineExercisesToResponse(entries []domain.RoutineExercise, names map[primitive.ObjectID]domain.Exercise) []RoutineExerciseResponse {
	responses := make([]RoutineExerciseResponse, len(entries))
	for i, e := range entries {
		responses[i] = MapRoutineExerciseToResponse(e, names)
	}
	return responses
}

// MapRoutineToResponse converts a domain.WorkoutRoutine to RoutineResponse DTO.
func MapRoutineToResponse(r *domain.WorkoutRoutine, names map[primitive.ObjectID]domain.Exercise) RoutineResponse {
	if r == nil {
		return RoutineResponse{}
	}
	return RoutineResponse{
		ID:            r.ID.Hex(),
		MemberID:      r.MemberID.Hex(),
		TrainerID:     r.TrainerID.Hex(),
		Name:          r.Name,
		Description:   r.Description,
		Goal:          r.Goal,
		DurationWeeks: r.DurationWeeks,
		IsActive:      r.IsActive,
		NotifiedAt:    r.NotifiedAt,
		Exercises:     MapRoutineExercisesToResponse(r.Exercises, names),
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func MapRoutinesToResponse(routines []domain.WorkoutRoutine, names map[primitive.ObjectID]domain.Exercise) []RoutineResponse {
	responses := make([]RoutineResponse, len(routines))
	for i := range routines {
		responses[i] = MapRoutineToResponse(&routines[i], names)
	}
	return responses
}

func (r RoutineExerciseRequest) toInput() service.RoutineExerciseInput {
	return service.RoutineExerciseInput{
		ExerciseID:  optionalObjectID(r.ExerciseID),
		DayOfWeek:   domain.Weekday(r.DayOfWeek),
		Order:       r.Order,
		Sets:        r.Sets,
		Reps:        r.Reps,
		RestSeconds: r.RestSeconds,
		WeightKg:    r.WeightKg,
		Notes:       r.Notes,
	}
}

func toRoutineExerciseInputs(reqs []RoutineExerciseRequest) []service.RoutineExerciseInput {
	inputs := make([]service.RoutineExerciseInput, len(reqs))
	for i, r := range reqs {
		inputs[i] = r.toInput()
	}
	return inputs
}

// --- Access helpers ---

func canViewRoutine(r *domain.WorkoutRoutine, userID primitive.ObjectID, role domain.Role) bool {
	switch {
	case isPrivileged(role):
		return true
	case role == domain.RoleTrainer:
		return r.TrainerID == userID
	default:
		return r.MemberID == userID
	}
}

func canEditRoutine(r *domain.WorkoutRoutine, userID primitive.ObjectID, role domain.Role) bool {
	return role == domain.RoleAdmin || (role == domain.RoleTrainer && r.TrainerID == userID)
}

// loadRoutine fetches the path's routine and applies the access rule.
// Routines the caller may not see are reported as missing.
func (h *RoutineHandler) loadRoutine(c *gin.Context, edit bool) (*domain.WorkoutRoutine, bool) {
	id, ok := pathObjectID(c, "routineId")
	if !ok {
		return nil, false
	}
	userID, role, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	routine, err := h.routineService.GetRoutine(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !canViewRoutine(routine, userID, role) {
		abortWithError(c, http.StatusNotFound, "Routine not found.")
		return nil, false
	}
	if edit && !canEditRoutine(routine, userID, role) {
		abortWithError(c, http.StatusForbidden, "Only the authoring trainer or an admin can modify this routine.")
		return nil, false
	}
	return routine, true
}

// exerciseNames resolves catalog names for display. Lookup failures only
// cost the names, never the response.
func (h *RoutineHandler) exerciseNames(c *gin.Context, routines ...domain.WorkoutRoutine) map[primitive.ObjectID]domain.Exercise {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, r := range routines {
		for _, e := range r.Exercises {
			if _, dup := seen[e.ExerciseID]; !dup {
				seen[e.ExerciseID] = struct{}{}
				ids = append(ids, e.ExerciseID)
			}
		}
	}
	names, err := h.catalogService.ResolveExercises(c.Request.Context(), ids)
	if err != nil {
		_ = c.Error(err)
		return nil
	}
	return names
}

func (h *RoutineHandler) respondRoutine(c *gin.Context, status int, routine *domain.WorkoutRoutine) {
	c.JSON(status, MapRoutineToResponse(routine, h.exerciseNames(c, *routine)))
}

// --- Handler Methods ---

// CreateRoutine godoc
// @Summary Create a routine for a member
// @Description Entries without an explicit order keep submission order within their day.
// @Tags Routines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param routine body CreateRoutineRequest true "Routine"
// @Success 201 {object} RoutineResponse
// @Failure 400 {object} ErrorResponse "Invalid routine or entries"
// @Router /routines [post]
func (h *RoutineHandler) CreateRoutine(c *gin.Context) {
	var req CreateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	memberID, err := primitive.ObjectIDFromHex(req.MemberID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid memberId format.")
		return
	}
	trainerID := userID
	if role == domain.RoleAdmin && req.TrainerID != "" {
		if trainerID, err = primitive.ObjectIDFromHex(req.TrainerID); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid trainerId format.")
			return
		}
	}

	routine, err := h.routineService.CreateRoutine(c.Request.Context(), service.CreateRoutineInput{
		MemberID:      memberID,
		TrainerID:     trainerID,
		Name:          req.Name,
		Description:   req.Description,
		Goal:          req.Goal,
		DurationWeeks: req.DurationWeeks,
		Exercises:     toRoutineExerciseInputs(req.Exercises),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRoutine(c, http.StatusCreated, routine)
}

// ListRoutines godoc
// @Summary List routines
// @Description With memberId, lists that member's routines; otherwise the caller's authored routines.
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Param memberId query string false "Member ID"
// @Param trainerId query string false "Trainer ID (admin and staff only)"
// @Success 200 {array} RoutineResponse
// @Router /routines [get]
func (h *RoutineHandler) ListRoutines(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var (
		routines []domain.WorkoutRoutine
		err      error
	)
	switch {
	case c.Query("memberId") != "":
		memberID, perr := primitive.ObjectIDFromHex(c.Query("memberId"))
		if perr != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid memberId format.")
			return
		}
		routines, err = h.routineService.ListRoutinesForMember(ctx, memberID)
		if err == nil && !isPrivileged(role) {
			visible := routines[:0]
			for _, r := range routines {
				if canViewRoutine(&r, userID, role) {
					visible = append(visible, r)
				}
			}
			routines = visible
		}
	case c.Query("trainerId") != "" && isPrivileged(role):
		trainerID, perr := primitive.ObjectIDFromHex(c.Query("trainerId"))
		if perr != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid trainerId format.")
			return
		}
		routines, err = h.routineService.ListRoutinesByTrainer(ctx, trainerID)
	default:
		routines, err = h.routineService.ListRoutinesByTrainer(ctx, userID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRoutinesToResponse(routines, h.exerciseNames(c, routines...)))
}

func (h *RoutineHandler) GetRoutine(c *gin.Context) {
	routine, ok := h.loadRoutine(c, false)
	if !ok {
		return
	}
	h.respondRoutine(c, http.StatusOK, routine)
}

// UpdateRoutine godoc
// @Summary Patch a routine
// @Description Send expectedVersion to guard against concurrent edits.
// @Tags Routines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine ID"
// @Param routine body UpdateRoutineRequest true "Fields to change"
// @Success 200 {object} RoutineResponse
// @Failure 400 {object} ErrorResponse "Invalid entries"
// @Failure 409 {object} ErrorResponse "Version conflict"
// @Router /routines/{routineId} [patch]
func (h *RoutineHandler) UpdateRoutine(c *gin.Context) {
	var req UpdateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	current, ok := h.loadRoutine(c, true)
	if !ok {
		return
	}

	patch := service.RoutinePatch{
		Name:            req.Name,
		Description:     req.Description,
		Goal:            req.Goal,
		DurationWeeks:   req.DurationWeeks,
		ExpectedVersion: req.ExpectedVersion,
	}
	if req.Exercises != nil {
		inputs := toRoutineExerciseInputs(*req.Exercises)
		patch.Exercises = &inputs
	}
	routine, err := h.routineService.UpdateRoutine(c.Request.Context(), current.ID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRoutine(c, http.StatusOK, routine)
}

// DeleteRoutine godoc
// @Summary Delete a routine
// @Tags Routines
// @Security BearerAuth
// @Param routineId path string true "Routine ID"
// @Success 204
// @Failure 412 {object} ErrorResponse "Routine still has open sessions"
// @Router /routines/{routineId} [delete]
func (h *RoutineHandler) DeleteRoutine(c *gin.Context) {
	current, ok := h.loadRoutine(c, true)
	if !ok {
		return
	}
	if err := h.routineService.DeleteRoutine(c.Request.Context(), current.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRoutineDay returns the ordered plan for one weekday.
func (h *RoutineHandler) GetRoutineDay(c *gin.Context) {
	current, ok := h.loadRoutine(c, false)
	if !ok {
		return
	}
	day, ok := pathInt(c, "day")
	if !ok {
		return
	}
	entries, err := h.routineService.RoutineDay(c.Request.Context(), current.ID, domain.Weekday(day))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRoutineExercisesToResponse(entries, h.exerciseNames(c, *current)))
}

// AddRoutineExercise godoc
// @Summary Add an exercise to one day of a routine
// @Tags Routines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine ID"
// @Param day path int true "Day of week (1 = Monday)"
// @Param entry body AddRoutineExerciseRequest true "Entry"
// @Success 200 {object} RoutineResponse
// @Router /routines/{routineId}/days/{day}/exercises [post]
func (h *RoutineHandler) AddRoutineExercise(c *gin.Context) {
	var req AddRoutineExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	current, ok := h.loadRoutine(c, true)
	if !ok {
		return
	}
	day, ok := pathInt(c, "day")
	if !ok {
		return
	}
	routine, err := h.routineService.AddExercise(c.Request.Context(), current.ID, domain.Weekday(day), req.toInput(), req.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRoutine(c, http.StatusOK, routine)
}

// RemoveRoutineExercise drops the entry at the given position of a day.
func (h *RoutineHandler) RemoveRoutineExercise(c *gin.Context) {
	current, ok := h.loadRoutine(c, true)
	if !ok {
		return
	}
	day, ok := pathInt(c, "day")
	if !ok {
		return
	}
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}
	routine, err := h.routineService.RemoveExercise(c.Request.Context(), current.ID, domain.Weekday(day), index)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRoutine(c, http.StatusOK, routine)
}

// ActivateRoutine godoc
// @Summary Make a routine the member's active routine
// @Description Any other active routine of the member is deactivated in the same step.
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine ID"
// @Success 200 {object} RoutineResponse
// @Failure 409 {object} ErrorResponse "Already active"
// @Router /routines/{routineId}/activate [post]
func (h *RoutineHandler) ActivateRoutine(c *gin.Context) {
	current, ok := h.loadRoutine(c, true)
	if !ok {
		return
	}
	routine, err := h.activationService.ActivateRoutine(c.Request.Context(), current.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRoutine(c, http.StatusOK, routine)
}

// NotifyMember godoc
// @Summary Tell the member their active routine is ready
// @Description Succeeds once per routine. Delivery failures are reported but do not undo the notification.
// @Tags Routines
// @Produce json
// @Security BearerAuth
// @Param routineId path string true "Routine ID"
// @Success 200 {object} NotifyResponse
// @Failure 409 {object} ErrorResponse "Inactive or already notified"
// @Router /routines/{routineId}/notify [post]
func (h *RoutineHandler) NotifyMember(c *gin.Context) {
	current, ok := h.loadRoutine(c, true)
	if !ok {
		return
	}
	result, err := h.activationService.NotifyMember(c.Request.Context(), current.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := NotifyResponse{
		Routine:    MapRoutineToResponse(result.Routine, h.exerciseNames(c, *result.Routine)),
		NotifiedAt: result.NotifiedAt,
		Delivered:  result.Delivered(),
	}
	if result.DeliveryErr != nil {
		resp.DeliveryError = result.DeliveryErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// GetMyActiveRoutine returns the caller's active routine.
func (h *RoutineHandler) GetMyActiveRoutine(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	routine, err := h.routineService.GetActiveRoutine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRoutine(c, http.StatusOK, routine)
}

func (h *RoutineHandler) ListMyRoutines(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	routines, err := h.routineService.ListRoutinesForMember(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapRoutinesToResponse(routines, h.exerciseNames(c, routines...)))
}
