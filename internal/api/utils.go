package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/service"
	"github.com/pokerjest/stamper/internal/upstream"
)

// pathID reads a positive integer path parameter. It writes the 400 itself.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func pathUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnknownKind):
		return http.StatusBadRequest
	case upstream.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log hclog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusInternalServerError:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	case http.StatusBadGateway:
		log.Warn("upstream failure", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}
