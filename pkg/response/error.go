package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/apperr"
)

const (
	// MsgUnauthenticated is the only message returned for any authentication failure.
	MsgUnauthenticated = "authentication required"
	// MsgUpstream is returned when an external dependency failed.
	MsgUpstream = "a dependent service is unavailable, please try again"
	// MsgInternal is returned for unexpected failures.
	MsgInternal = "something went wrong, please try again"
)

// Error writes err using its apperr kind. Upstream and internal details are logged, never returned.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindUnreadableContent:
		BadRequest(c, apperr.Message(err))
	case apperr.KindNotFound:
		NotFound(c, apperr.Message(err))
	case apperr.KindUnauthenticated:
		Unauthorized(c, MsgUnauthenticated)
	case apperr.KindUpstream:
		logger.Error("upstream failure", zap.String("path", c.FullPath()), zap.Error(err))
		BadGateway(c, MsgUpstream)
	default:
		logger.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		Internal(c, MsgInternal)
	}
}
