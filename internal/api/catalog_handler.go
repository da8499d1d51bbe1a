package api

import (
	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogHandler serves muscle groups, exercises and exercise media.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- DTOs for API (Data Transfer Objects) ---

// MuscleGroupRequest defines the expected JSON for creating or renaming a muscle group.
type MuscleGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type MuscleGroupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ExerciseRequest defines the expected JSON for creating or editing an exercise.
type ExerciseRequest struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	Instructions    string `json:"instructions"`
	MuscleGroupID   string `json:"muscleGroupId" binding:"required"`
	Difficulty      string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	EquipmentNeeded string `json:"equipmentNeeded"`
	VideoURL        string `json:"videoUrl" binding:"omitempty,url"`
	ImageURL        string `json:"imageUrl" binding:"omitempty,url"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Instructions    string    `json:"instructions,omitempty"`
	MuscleGroupID   string    `json:"muscleGroupId"`
	Difficulty      string    `json:"difficulty"`
	EquipmentNeeded string    `json:"equipmentNeeded,omitempty"`
	VideoURL        string    `json:"videoUrl,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	MediaKeys       []string  `json:"mediaKeys,omitempty"`
	IsActive        bool      `json:"isActive"`
	CreatedBy       string    `json:"createdBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MediaUploadRequest asks for a presigned upload URL for one media file.
type MediaUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

func MapMuscleGroupToResponse(g *domain.MuscleGroup) MuscleGroupResponse {
	if g == nil {
		return MuscleGroupResponse{}
	}
	return MuscleGroupResponse{
		ID:          g.ID.Hex(),
		Name:        g.Name,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func MapMuscleGroupsToResponse(groups []domain.MuscleGroup) []MuscleGroupResponse {
	responses := make([]MuscleGroupResponse, len(groups))
	for i := range groups {
		responses[i] = MapMuscleGroupToResponse(&groups[i])
	}
	return responses
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	resp := ExerciseResponse{
		ID:              ex.ID.Hex(),
		Name:            ex.Name,
		Description:     ex.Description,
		Instructions:    ex.Instructions,
		MuscleGroupID:   ex.MuscleGroupID.Hex(),
		Difficulty:      string(ex.Difficulty),
		EquipmentNeeded: ex.EquipmentNeeded,
		VideoURL:        ex.Media.VideoURL,
		ImageURL:        ex.Media.ImageURL,
		MediaKeys:       ex.Media.MediaKeys,
		IsActive:        ex.IsActive,
		CreatedAt:       ex.CreatedAt,
		UpdatedAt:       ex.UpdatedAt,
	}
	if ex.CreatedBy != nil {
		resp.CreatedBy = ex.CreatedBy.Hex()
	}
	return resp
}

// MapExercisesToResponse converts a slice of domain.Exercise to a slice of ExerciseResponse DTO.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

func (r ExerciseRequest) toInput() service.ExerciseInput {
	return service.ExerciseInput{
		Name:            r.Name,
		Description:     r.Description,
		Instructions:    r.Instructions,
		MuscleGroupID:   optionalObjectID(r.MuscleGroupID),
		Difficulty:      domain.Difficulty(r.Difficulty),
		EquipmentNeeded: r.EquipmentNeeded,
		VideoURL:        r.VideoURL,
		ImageURL:        r.ImageURL,
	}
}

// --- Muscle groups ---

// ListMuscleGroups godoc
// @Summary List muscle groups
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} MuscleGroupResponse
// @Router /muscle-groups [get]
func (h *CatalogHandler) ListMuscleGroups(c *gin.Context) {
	groups, err := h.catalogService.ListMuscleGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMuscleGroupsToResponse(groups))
}

func (h *CatalogHandler) GetMuscleGroup(c *gin.Context) {
	id, ok := pathObjectID(c, "groupId")
	if !ok {
		return
	}
	group, err := h.catalogService.GetMuscleGroup(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMuscleGroupToResponse(group))
}

// CreateMuscleGroup godoc
// @Summary Create a muscle group
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param group body MuscleGroupRequest true "Muscle group"
// @Success 201 {object} MuscleGroupResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 409 {object} ErrorResponse "Name already taken"
// @Router /muscle-groups [post]
func (h *CatalogHandler) CreateMuscleGroup(c *gin.Context) {
	var req MuscleGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	group, err := h.catalogService.CreateMuscleGroup(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapMuscleGroupToResponse(group))
}

func (h *CatalogHandler) UpdateMuscleGroup(c *gin.Context) {
	id, ok := pathObjectID(c, "groupId")
	if !ok {
		return
	}
	var req MuscleGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	group, err := h.catalogService.UpdateMuscleGroup(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapMuscleGroupToResponse(group))
}

// DeleteMuscleGroup godoc
// @Summary Delete an unreferenced muscle group
// @Tags Catalog
// @Security BearerAuth
// @Param groupId path string true "Muscle group ID"
// @Success 204
// @Failure 412 {object} ErrorResponse "Still referenced by exercises"
// @Router /muscle-groups/{groupId} [delete]
func (h *CatalogHandler) DeleteMuscleGroup(c *gin.Context) {
	id, ok := pathObjectID(c, "groupId")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteMuscleGroup(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Exercises ---

// ListExercises godoc
// @Summary List active exercises
// @Description Filters combine; all supplied filters must match.
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param muscleGroupId query string false "Muscle group ID"
// @Param difficulty query string false "beginner, intermediate or advanced"
// @Param search query string false "Case-insensitive text search"
// @Success 200 {array} ExerciseResponse
// @Router /exercises [get]
func (h *CatalogHandler) ListExercises(c *gin.Context) {
	var filter domain.ExerciseFilter
	if raw := c.Query("muscleGroupId"); raw != "" {
		groupID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid muscleGroupId format.")
			return
		}
		filter.MuscleGroupID = &groupID
	}
	if raw := c.Query("difficulty"); raw != "" {
		d := domain.Difficulty(raw)
		filter.Difficulty = &d
	}
	filter.Search = c.Query("search")

	exercises, err := h.catalogService.ListExercises(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

func (h *CatalogHandler) GetExercise(c *gin.Context) {
	id, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	exercise, err := h.catalogService.GetExercise(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// CreateExercise godoc
// @Summary Create a new exercise
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse "Exercise created successfully"
// @Failure 400 {object} ErrorResponse "Invalid input (validation error)"
// @Failure 403 {object} gin.H "Forbidden"
// @Router /exercises [post]
func (h *CatalogHandler) CreateExercise(c *gin.Context) {
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	exercise, err := h.catalogService.CreateExercise(c.Request.Context(), userID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

func (h *CatalogHandler) UpdateExercise(c *gin.Context) {
	id, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	exercise, err := h.catalogService.UpdateExercise(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

// DeactivateExercise godoc
// @Summary Deactivate an exercise
// @Description The exercise disappears from listings; routines and logs that reference it keep working.
// @Tags Catalog
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Success 204
// @Router /exercises/{exerciseId} [delete]
func (h *CatalogHandler) DeactivateExercise(c *gin.Context) {
	id, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateExercise(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestMediaUpload godoc
// @Summary Get a presigned upload URL for exercise media
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exerciseId path string true "Exercise ID"
// @Param request body MediaUploadRequest true "Media content type"
// @Success 200 {object} service.MediaUpload
// @Failure 412 {object} ErrorResponse "Media storage not configured"
// @Router /exercises/{exerciseId}/media [post]
func (h *CatalogHandler) RequestMediaUpload(c *gin.Context) {
	id, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	var req MediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	upload, err := h.catalogService.RequestMediaUploadURL(c.Request.Context(), id, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (h *CatalogHandler) ListMedia(c *gin.Context) {
	id, ok := pathObjectID(c, "exerciseId")
	if !ok {
		return
	}
	urls, err := h.catalogService.MediaDownloadURLs(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, urls)
}
