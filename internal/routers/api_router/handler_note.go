package api_router

import (
	"github.com/haierkeys/note-chain-service/internal/app"
	"github.com/haierkeys/note-chain-service/internal/dto"
	pkgapp "github.com/haierkeys/note-chain-service/pkg/app"
	"github.com/haierkeys/note-chain-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoteHandler 笔记 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type NoteHandler struct {
	*Handler
}

// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{
		Handler: NewHandler(a),
	}
}

// List 获取笔记列表
// @Summary 获取笔记列表
// @Description 返回每条笔记的当前版本，按创建时间倒序
// @Tags 笔记
// @Produce json
// @Success 200 {object} pkgapp.Res{data=[]dto.NoteVersionDTO} "成功"
// @Router /api/notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	notes, err := h.App.NoteService.ListNotes(c.Request.Context())
	if err != nil {
		h.respondError(c, "NoteHandler.List", err)
		return
	}

	response.ToResponseList(code.Success, notes)
}

// Create 创建笔记
// @Summary 创建笔记
// @Description 创建笔记及其版本 1
// @Tags 笔记
// @Accept json
// @Produce json
// @Param params body dto.NoteCreateRequest true "标题与内容"
// @Success 200 {object} pkgapp.Res{data=dto.NoteVersionDTO} "成功"
// @Router /api/notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteCreateRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Debug("NoteHandler.Create.BindAndValid errs", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	version, err := h.App.NoteService.CreateNote(c.Request.Context(), params.Title, params.Content)
	if err != nil {
		h.respondError(c, "NoteHandler.Create", err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}

// Delete 删除笔记
// @Summary 删除笔记
// @Description 删除笔记及其全部版本
// @Tags 笔记
// @Produce json
// @Param noteId path int true "笔记 ID"
// @Success 200 {object} pkgapp.Res{data=dto.DeleteResultDTO} "成功"
// @Router /api/notes/{noteId} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteIDRequest{}

	valid, errs := pkgapp.BindUriAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	if err := h.App.NoteService.DeleteNote(c.Request.Context(), params.NoteID); err != nil {
		h.respondError(c, "NoteHandler.Delete", err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.DeleteResultDTO{Message: "Note deleted"}))
}

// Restore 恢复到指定版本
// @Summary 恢复版本
// @Description 将指定版本设为当前版本，并删除所有更新的版本
// @Tags 笔记
// @Produce json
// @Param noteId path int true "笔记 ID"
// @Param versionNumber path int true "版本号"
// @Success 200 {object} pkgapp.Res{data=dto.NoteVersionDTO} "成功"
// @Router /api/notes/{noteId}/restore/{versionNumber} [post]
func (h *NoteHandler) Restore(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteVersionRequest{}

	valid, errs := pkgapp.BindUriAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	version, err := h.App.NoteService.RestoreVersion(c.Request.Context(), params.NoteID, params.VersionNumber)
	if err != nil {
		h.respondError(c, "NoteHandler.Restore", err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}
