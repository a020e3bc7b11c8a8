// internal/app/features/members/handler.go
package members

import (
	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	"github.com/dalemusser/dojohub/internal/app/memberdata"
	beltlevelstore "github.com/dalemusser/dojohub/internal/app/store/beltlevels"
	studentlevelstore "github.com/dalemusser/dojohub/internal/app/store/studentlevels"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for Members. All member reads and
// writes go through the memberdata service so caching and batching apply
// uniformly; the taxonomy stores are read directly only to populate the
// award form options.
type Handler struct {
	Svc    *memberdata.Service
	Belts  *beltlevelstore.Store
	Levels *studentlevelstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(svc *memberdata.Service, belts *beltlevelstore.Store, levels *studentlevelstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		Belts:  belts,
		Levels: levels,
		Log:    logger,
		ErrLog: errLog,
	}
}
