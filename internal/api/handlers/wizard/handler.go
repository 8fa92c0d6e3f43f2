package wizard

import (
	"errors"
	"net/http"

	"glowguide/internal/core/skin"
	wizardCore "glowguide/internal/core/wizard"
	"glowguide/internal/infrastructure/config"
	"glowguide/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AreaRequest 選擇部位
type AreaRequest struct {
	Area string `json:"area" binding:"required"`
}

// CategoryRequest 選擇產品類別
type CategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// ConcernRequest 切換困擾
type ConcernRequest struct {
	Concern string `json:"concern" binding:"required"`
}

// Handler 精靈流程處理程序
type Handler struct {
	sessions *wizardCore.SessionManager
	taxonomy *skin.Taxonomy
	display  config.DisplayConfig
	debug    bool
}

// NewHandler 創建新的精靈處理程序
func NewHandler(sessions *wizardCore.SessionManager, taxonomy *skin.Taxonomy, cfg *config.Config) *Handler {
	return &Handler{
		sessions: sessions,
		taxonomy: taxonomy,
		display:  cfg.Display,
		debug:    cfg.App.Debug,
	}
}

// Register 註冊路由；dedup 套用在會呼叫外部服務的路由上
func (h *Handler) Register(group *gin.RouterGroup, dedup gin.HandlerFunc) {
	group.GET("/taxonomy", h.HandleTaxonomy)

	sessions := group.Group("/sessions")
	{
		sessions.POST("", h.HandleCreate)
		sessions.GET("/:id", h.HandleGet)
		sessions.DELETE("/:id", h.HandleDelete)
		sessions.POST("/:id/area", h.HandleSelectArea)
		sessions.DELETE("/:id/area", h.HandleClearArea)
		sessions.POST("/:id/category", h.HandleSelectCategory)
		sessions.POST("/:id/concerns/toggle", h.HandleToggleConcern)
		sessions.POST("/:id/concerns/submit", dedup, h.HandleSubmitConcerns)
		sessions.POST("/:id/products", dedup, h.HandleRequestProducts)
		sessions.POST("/:id/back", h.HandleGoBack)
		sessions.POST("/:id/reset", h.HandleReset)
	}
}

// HandleCreate 建立新會話
func (h *Handler) HandleCreate(c *gin.Context) {
	ctrl, err := h.sessions.Create()
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(ctrl.Snapshot(), h.display))
}

// HandleGet 取得會話狀態
func (h *Handler) HandleGet(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	h.respondView(c, ctrl)
}

// HandleDelete 刪除會話
func (h *Handler) HandleDelete(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		h.respondError(c, common.ErrSessionNotFound, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleSelectArea 選擇部位
func (h *Handler) HandleSelectArea(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req AreaRequest
	if !h.bind(c, &req) {
		return
	}
	h.apply(c, ctrl, ctrl.SelectFaceArea(req.Area))
}

// HandleClearArea 清除部位
func (h *Handler) HandleClearArea(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	h.apply(c, ctrl, ctrl.ClearFaceArea())
}

// HandleSelectCategory 選擇產品類別
func (h *Handler) HandleSelectCategory(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req CategoryRequest
	if !h.bind(c, &req) {
		return
	}
	h.apply(c, ctrl, ctrl.SelectProductCategory(req.Category))
}

// HandleToggleConcern 切換困擾
func (h *Handler) HandleToggleConcern(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	var req ConcernRequest
	if !h.bind(c, &req) {
		return
	}
	h.apply(c, ctrl, ctrl.ToggleConcern(skin.Concern(req.Concern)))
}

// HandleSubmitConcerns 送出困擾取得成分推薦
func (h *Handler) HandleSubmitConcerns(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	common.LogInfo("開始處理成分推薦請求",
		zap.String("request_id", requestid.Get(c)),
		zap.String("session_id", ctrl.ID()),
	)
	h.apply(c, ctrl, ctrl.SubmitConcerns(c.Request.Context()))
}

// HandleRequestProducts 取得推薦商品
func (h *Handler) HandleRequestProducts(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	common.LogInfo("開始處理商品推薦請求",
		zap.String("request_id", requestid.Get(c)),
		zap.String("session_id", ctrl.ID()),
	)
	h.apply(c, ctrl, ctrl.RequestProducts(c.Request.Context()))
}

// HandleGoBack 回到上一步
func (h *Handler) HandleGoBack(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	h.apply(c, ctrl, ctrl.GoBack())
}

// HandleReset 重新開始
func (h *Handler) HandleReset(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	ctrl.Reset()
	h.respondView(c, ctrl)
}

func (h *Handler) session(c *gin.Context) (*wizardCore.Controller, bool) {
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.respondError(c, err, nil)
		return nil, false
	}
	return ctrl, true
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestid.Get(c)),
		)
		resp := common.ErrInvalidRequest.ToResponse(false)
		if h.debug {
			resp.Details = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, resp)
		return false
	}
	return true
}

func (h *Handler) apply(c *gin.Context, ctrl *wizardCore.Controller, err error) {
	if err != nil {
		h.respondError(c, err, ctrl)
		return
	}
	h.respondView(c, ctrl)
}

func (h *Handler) respondView(c *gin.Context, ctrl *wizardCore.Controller) {
	c.JSON(http.StatusOK, newSessionResponse(ctrl.Snapshot(), h.display))
}

// respondError 依錯誤種類決定狀態碼
func (h *Handler) respondError(c *gin.Context, err error, ctrl *wizardCore.Controller) {
	requestID := requestid.Get(c)

	switch {
	case common.IsValidationError(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeValidation,
			Message: err.Error(),
		})
		return

	case errors.Is(err, wizardCore.ErrUnknownConcern):
		c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: err.Error(),
		})
		return

	case common.IsServiceError(err):
		common.LogError("外部服務呼叫失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		resp := SessionErrorResponse{
			Code:    common.ErrCodeBadGateway,
			Message: common.ServiceErrorMessage(err),
		}
		if h.debug {
			resp.Details = err.Error()
		}
		if ctrl != nil {
			session := newSessionResponse(ctrl.Snapshot(), h.display)
			resp.Session = &session
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, resp)
		return
	}

	var customErr *common.CustomError
	if errors.As(err, &customErr) {
		c.AbortWithStatusJSON(customErr.Status, customErr.ToResponse(h.debug))
		return
	}

	common.LogError("未預期的錯誤",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, common.ErrInternalError.ToResponse(false))
}
