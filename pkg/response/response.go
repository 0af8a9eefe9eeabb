// Package response 提供统一的 HTTP JSON 响应封装
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
)

// Body 统一响应结构
type Body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success 返回成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{
		Code:    "ok",
		Message: "success",
		Data:    data,
	})
}

// Created 返回创建成功响应
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Body{
		Code:    "ok",
		Message: "created",
		Data:    data,
	})
}

// Error 根据业务错误类别返回对应状态码
func Error(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), Body{
		Code:    apperr.CodeOf(err),
		Message: err.Error(),
	})
}

// ErrorWithStatus 返回指定状态码的错误响应
func ErrorWithStatus(c *gin.Context, status int, code, message string) {
	c.JSON(status, Body{
		Code:    code,
		Message: message,
	})
}
