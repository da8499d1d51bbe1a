package api

import (
	"alcyxob/gym-routines/internal/domain"
	"alcyxob/gym-routines/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionHandler serves workout session tracking.
type SessionHandler struct {
	sessionService service.SessionService
}

func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- DTOs for API (Data Transfer Objects) ---

type StartSessionRequest struct {
	RoutineID string `json:"routineId" binding:"required"`
	DayOfWeek int    `json:"dayOfWeek" binding:"required"`
	MemberID  string `json:"memberId"` // Admin and staff only; members always start their own
	Notes     string `json:"notes"`
}

// LogExerciseRequest records one performed exercise. exerciseId may be
// omitted while routineExerciseId still exists in the routine.
type LogExerciseRequest struct {
	RoutineExerciseID string   `json:"routineExerciseId"`
	ExerciseID        string   `json:"exerciseId"`
	PlannedSets       int      `json:"plannedSets"`
	PlannedReps       int      `json:"plannedReps"`
	ActualSets        int      `json:"actualSets"`
	ActualReps        int      `json:"actualReps"`
	WeightUsed        *float64 `json:"weightUsed"`
	DifficultyRating  int      `json:"difficultyRating" binding:"required"`
	Notes             string   `json:"notes"`
}

type CompleteSessionRequest struct {
	DurationMinutes int `json:"durationMinutes"`
}

type ExerciseLogResponse struct {
	ID                string    `json:"id"`
	RoutineExerciseID string    `json:"routineExerciseId"`
	ExerciseID        string    `json:"exerciseId"`
	ExerciseName      string    `json:"exerciseName"`
	MuscleGroup       string    `json:"muscleGroup,omitempty"`
	PlannedSets       int       `json:"plannedSets"`
	PlannedReps       int       `json:"plannedReps"`
	ActualSets        int       `json:"actualSets"`
	ActualReps        int       `json:"actualReps"`
	AvgRepsPerSet     float64   `json:"avgRepsPerSet"`
	WeightUsed        *float64  `json:"weightUsed,omitempty"`
	DifficultyRating  int       `json:"difficultyRating"`
	Notes             string    `json:"notes,omitempty"`
	CompletedAt       time.Time `json:"completedAt"`
}

type SessionResponse struct {
	ID              string                  `json:"id"`
	MemberID        string                  `json:"memberId"`
	RoutineID       string                  `json:"routineId"`
	RoutineName     string                  `json:"routineName"`
	DayOfWeek       int                     `json:"dayOfWeek"`
	DayName         string                  `json:"dayName"`
	Date            time.Time               `json:"date"`
	Notes           string                  `json:"notes,omitempty"`
	Status          string                  `json:"status"`
	Completed       bool                    `json:"completed"`
	DurationMinutes *int                    `json:"durationMinutes,omitempty"`
	Progress        service.SessionProgress `json:"progress"`
	Logs            []ExerciseLogResponse   `json:"logs"`
	CompletedAt     *time.Time              `json:"completedAt,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

func MapExerciseLogToResponse(l domain.ExerciseLog) ExerciseLogResponse {
	return ExerciseLogResponse{
		ID:                l.ID.Hex(),
		RoutineExerciseID: l.RoutineExerciseID.Hex(),
		ExerciseID:        l.Exercise.ID.Hex(),
		ExerciseName:      l.Exercise.Name,
		MuscleGroup:       l.Exercise.MuscleGroup,
		PlannedSets:       l.PlannedSets,
		PlannedReps:       l.PlannedReps,
		ActualSets:        l.ActualSets,
		ActualReps:        l.ActualReps,
		AvgRepsPerSet:     l.AvgRepsPerSet(),
		WeightUsed:        l.WeightUsed,
		DifficultyRating:  l.DifficultyRating,
		Notes:             l.Notes,
		CompletedAt:       l.CompletedAt,
	}
}

// MapSessionToResponse converts a domain.WorkoutSession to SessionResponse DTO.
func MapSessionToResponse(s *domain.WorkoutSession) SessionResponse {
	if s == nil {
		return SessionResponse{}
	}
	logs := make([]ExerciseLogResponse, len(s.Logs))
	for i, l := range s.Logs {
		logs[i] = MapExerciseLogToResponse(l)
	}
	return SessionResponse{
		ID:              s.ID.Hex(),
		MemberID:        s.MemberID.Hex(),
		RoutineID:       s.RoutineID.Hex(),
		RoutineName:     s.RoutineName,
		DayOfWeek:       int(s.DayOfWeek),
		DayName:         s.DayOfWeek.String(),
		Date:            s.Date,
		Notes:           s.Notes,
		Status:          string(s.Status),
		Completed:       s.Completed,
		DurationMinutes: s.DurationMinutes,
		Progress:        service.Progress(s),
		Logs:            logs,
		CompletedAt:     s.CompletedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func MapSessionsToResponse(sessions []domain.WorkoutSession) []SessionResponse {
	responses := make([]SessionResponse, len(sessions))
	for i := range sessions {
		responses[i] = MapSessionToResponse(&sessions[i])
	}
	return responses
}

// loadSession fetches the path's session for its owner. Admins and staff may
// act on any session; trainers may only read. Other callers get a 404.
func (h *SessionHandler) loadSession(c *gin.Context, write bool) (*domain.WorkoutSession, bool) {
	id, ok := pathObjectID(c, "sessionId")
	if !ok {
		return nil, false
	}
	userID, role, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	session, err := h.sessionService.GetSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	owner := session.MemberID == userID
	switch {
	case owner || isPrivileged(role):
	case role == domain.RoleTrainer && !write:
	default:
		abortWithError(c, http.StatusNotFound, "Session not found.")
		return nil, false
	}
	return session, true
}

// --- Handler Methods ---

// StartSession godoc
// @Summary Start a workout session
// @Description Creates a planned session for one day of the member's active routine.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body StartSessionRequest true "Session"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} ErrorResponse "Invalid day or nothing scheduled"
// @Failure 404 {object} ErrorResponse "Routine not found"
// @Failure 409 {object} ErrorResponse "Routine not active or not the member's"
// @Router /sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	routineID, err := primitive.ObjectIDFromHex(req.RoutineID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid routineId format.")
		return
	}
	memberID := userID
	if isPrivileged(role) && req.MemberID != "" {
		if memberID, err = primitive.ObjectIDFromHex(req.MemberID); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid memberId format.")
			return
		}
	}

	session, err := h.sessionService.StartSession(c.Request.Context(), service.StartSessionInput{
		MemberID:  memberID,
		RoutineID: routineID,
		DayOfWeek: domain.Weekday(req.DayOfWeek),
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSessionToResponse(session))
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	session, ok := h.loadSession(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

// LogExercise godoc
// @Summary Log a performed exercise
// @Description Appends a log and moves the session to in_progress. Completed sessions reject new logs.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param log body LogExerciseRequest true "Performed exercise"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} ErrorResponse "Invalid log"
// @Failure 409 {object} ErrorResponse "Session already completed"
// @Router /sessions/{sessionId}/logs [post]
func (h *SessionHandler) LogExercise(c *gin.Context) {
	var req LogExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	current, ok := h.loadSession(c, true)
	if !ok {
		return
	}
	session, err := h.sessionService.LogExercise(c.Request.Context(), service.LogExerciseInput{
		SessionID:         current.ID,
		RoutineExerciseID: optionalObjectID(req.RoutineExerciseID),
		ExerciseID:        optionalObjectID(req.ExerciseID),
		PlannedSets:       req.PlannedSets,
		PlannedReps:       req.PlannedReps,
		ActualSets:        req.ActualSets,
		ActualReps:        req.ActualReps,
		WeightUsed:        req.WeightUsed,
		DifficultyRating:  req.DifficultyRating,
		Notes:             req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSessionToResponse(session))
}

// CompleteSession godoc
// @Summary Complete a workout session
// @Tags Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path string true "Session ID"
// @Param request body CompleteSessionRequest true "Duration"
// @Success 200 {object} SessionResponse
// @Failure 409 {object} ErrorResponse "Session already completed"
// @Router /sessions/{sessionId}/complete [post]
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	current, ok := h.loadSession(c, true)
	if !ok {
		return
	}
	session, err := h.sessionService.CompleteSession(c.Request.Context(), current.ID, req.DurationMinutes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionToResponse(session))
}

// DeleteSession discards an unfinished session.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	current, ok := h.loadSession(c, true)
	if !ok {
		return
	}
	if err := h.sessionService.DeleteSession(c.Request.Context(), current.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) ListMySessions(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	sessions, err := h.sessionService.ListSessionsForMember(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionsToResponse(sessions))
}

// ListMemberSessions is the trainer and staff view of a member's history.
func (h *SessionHandler) ListMemberSessions(c *gin.Context) {
	memberID, ok := pathObjectID(c, "memberId")
	if !ok {
		return
	}
	sessions, err := h.sessionService.ListSessionsForMember(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionsToResponse(sessions))
}
