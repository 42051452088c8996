// Package apierr 统一的 API 错误响应格式
//
// 所有错误响应均为 {"error": {"code": "...", "message": "...", "details": {...}}}，
// details 仅在有补充信息时出现。code 为稳定的机器可读标识，前端按 code 分支处理。
package apierr

import (
	"encoding/json"
	"net/http"
)

// 错误码常量，对外接口的稳定契约
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeAuth         = "AUTH_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeDuplicate    = "DUPLICATE_TITLE"
	CodeRateLimited  = "RATE_LIMIT_EXCEEDED"
	CodePayloadLarge = "PAYLOAD_TOO_LARGE"
	CodeServer       = "SERVER_ERROR"
)

// body 错误响应外层
type body struct {
	Error payload `json:"error"`
}

// payload 错误响应内容
type payload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Write 写出标准错误响应
func Write(w http.ResponseWriter, status int, code, message string) {
	WriteDetails(w, status, code, message, nil)
}

// WriteDetails 写出带补充信息的标准错误响应
func WriteDetails(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body{Error: payload{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// WriteJSON 写出成功响应
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}
