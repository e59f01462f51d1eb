// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storyforge-ai-api/internal/domain/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest 分页查询参数，非法值回落到默认值
type PageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Pagination 转换为仓储分页参数
func (r PageRequest) Pagination() repository.Pagination {
	return repository.NewPagination(r.Page, r.PageSize)
}

// BindPage 读取 ?page=&page_size=
func BindPage(c *gin.Context) PageRequest {
	return PageRequest{
		Page:     queryInt(c, "page", 1, 1, 0),
		PageSize: queryInt(c, "page_size", defaultPageSize, 1, maxPageSize),
	}
}

// queryInt 解析查询参数，低于 lo 使用默认值，超过 hi 截断 (hi<=0 不设上限)
func queryInt(c *gin.Context, key string, def, lo, hi int) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || v < lo {
		return def
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// BindProjectID 读取路径中的项目 ID
func BindProjectID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("pid"))
}
