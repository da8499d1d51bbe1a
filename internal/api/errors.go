package api

import (
	"alcyxob/gym-routines/internal/domain"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrorResponse is the body of every non-2xx reply produced by a service error.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Kind    string         `json:"kind,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindFailedPrecondition:
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}

// respondError translates a service error into an HTTP reply. Typed errors
// keep their message and details; anything else is logged and hidden.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var de *domain.Error
	if !errors.As(err, &de) || statusForKind(de.Kind) == http.StatusInternalServerError {
		abortWithError(c, http.StatusInternalServerError, "Internal server error.")
		return
	}
	msg := de.Message
	if msg == "" && de.Err != nil {
		msg = de.Err.Error()
	}
	c.AbortWithStatusJSON(statusForKind(de.Kind), ErrorResponse{
		Error:   msg,
		Kind:    string(de.Kind),
		Details: de.Details,
	})
}

// pathObjectID parses the named path parameter, replying 400 when malformed.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathInt parses the named integer path parameter, replying 400 when malformed.
func pathInt(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+": must be an integer.")
		return 0, false
	}
	return n, true
}

// optionalObjectID turns a client-supplied hex id into an ObjectID. Empty or
// malformed values yield the nil id so the service can report them alongside
// every other problem in the same request.
func optionalObjectID(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}
