package api_router

import (
	"github.com/haierkeys/note-chain-service/internal/app"
	"github.com/haierkeys/note-chain-service/internal/dto"
	pkgapp "github.com/haierkeys/note-chain-service/pkg/app"
	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoteVersionHandler 笔记版本 API 路由处理器
type NoteVersionHandler struct {
	*Handler
}

// NewNoteVersionHandler 创建 NoteVersionHandler 实例
func NewNoteVersionHandler(a *app.App) *NoteVersionHandler {
	return &NoteVersionHandler{
		Handler: NewHandler(a),
	}
}

// List 获取笔记的全部版本
// @Summary 获取版本列表
// @Description 返回笔记的全部版本，版本号从大到小
// @Tags 笔记版本
// @Produce json
// @Param noteId path int true "笔记 ID"
// @Success 200 {object} pkgapp.Res{data=[]dto.NoteVersionDTO} "成功"
// @Router /api/notes/{noteId}/versions [get]
func (h *NoteVersionHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteIDRequest{}

	valid, errs := pkgapp.BindUriAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	versions, err := h.App.NoteService.GetVersions(c.Request.Context(), params.NoteID)
	if err != nil {
		h.respondError(c, "NoteVersionHandler.List", err)
		return
	}

	response.ToResponseList(code.Success, versions)
}

// Append 追加新版本
// @Summary 追加版本
// @Description 追加版本 current+1 并设为当前版本
// @Tags 笔记版本
// @Accept json
// @Produce json
// @Param noteId path int true "笔记 ID"
// @Param params body dto.NoteCreateRequest true "标题与内容"
// @Success 200 {object} pkgapp.Res{data=dto.NoteVersionDTO} "成功"
// @Router /api/notes/{noteId}/versions [post]
func (h *NoteVersionHandler) Append(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	uri := &dto.NoteIDRequest{}

	valid, errs := pkgapp.BindUriAndValid(c, uri)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	params := &dto.NoteCreateRequest{}
	valid, errs = pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Debug("NoteVersionHandler.Append.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	version, err := h.App.NoteService.AppendVersion(c.Request.Context(), uri.NoteID, params.Title, params.Content)
	if err != nil {
		h.respondError(c, "NoteVersionHandler.Append", err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}

// Get 获取指定版本
// @Summary 获取版本
// @Tags 笔记版本
// @Produce json
// @Param noteId path int true "笔记 ID"
// @Param versionNumber path int true "版本号"
// @Success 200 {object} pkgapp.Res{data=dto.NoteVersionDTO} "成功"
// @Router /api/notes/{noteId}/versions/{versionNumber} [get]
func (h *NoteVersionHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteVersionRequest{}

	valid, errs := pkgapp.BindUriAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	version, err := h.App.NoteService.GetVersion(c.Request.Context(), params.NoteID, params.VersionNumber)
	if err != nil {
		h.respondError(c, "NoteVersionHandler.Get", err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}
