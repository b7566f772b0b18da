package code

import (
	"errors"
	"net/http"
)

var (
	Success = NewSuss(1, lang{en: "Success", zh_cn: "成功"})
	Failed  = NewError(0, http.StatusInternalServerError, lang{en: "Failed", zh_cn: "失败"})

	ErrorServerInternal  = NewError(500, http.StatusInternalServerError, lang{en: "Internal Server Error", zh_cn: "服务器内部错误"})
	ErrorNotFoundAPI     = NewError(404, http.StatusNotFound, lang{en: "API not found", zh_cn: "接口不存在"})
	ErrorInvalidParams   = NewError(400, http.StatusBadRequest, lang{en: "Invalid params", zh_cn: "参数错误"})
	ErrorTooManyRequests = NewError(429, http.StatusTooManyRequests, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorInjectedFault   = NewError(503, http.StatusInternalServerError, lang{en: "Random server error", zh_cn: "随机服务器错误"})
	ErrorRequestTimeout  = NewError(504, http.StatusGatewayTimeout, lang{en: "Request timed out", zh_cn: "请求超时"})

	// NotFound
	ErrorNoteNotFound    = NewError(404001, http.StatusNotFound, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorVersionNotFound = NewError(404002, http.StatusNotFound, lang{en: "Version not found", zh_cn: "版本不存在"})

	// ConflictViolation
	ErrorVersionConflict = NewError(409001, http.StatusConflict, lang{en: "Version number conflict, the note was modified concurrently", zh_cn: "版本号冲突，笔记被并发修改"})

	// StorageFailure
	ErrorDBQuery        = NewError(500001, http.StatusInternalServerError, lang{en: "Database query failed", zh_cn: "数据库查询失败"})
	ErrorDBWrite        = NewError(500002, http.StatusInternalServerError, lang{en: "Database write failed", zh_cn: "数据库写入失败"})
	ErrorWriteQueueBusy = NewError(500003, http.StatusInternalServerError, lang{en: "Write queue is busy", zh_cn: "写队列繁忙"})
)

// IsNotFound reports whether err is a NotFound error
// IsNotFound 判断是否为不存在错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrorNoteNotFound) || errors.Is(err, ErrorVersionNotFound)
}

// IsConflict reports whether err is a ConflictViolation error
// IsConflict 判断是否为冲突错误
func IsConflict(err error) bool {
	return errors.Is(err, ErrorVersionConflict)
}

// IsStorageFailure reports whether err is a StorageFailure error
// IsStorageFailure 判断是否为存储层错误
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrorDBQuery) || errors.Is(err, ErrorDBWrite) || errors.Is(err, ErrorWriteQueueBusy)
}
