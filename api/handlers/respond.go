package handlers

import (
	"log"
	"net/http"
	"strconv"

	"chirp/errs"

	"github.com/gin-gonic/gin"
)

// Response envelope: {success, data, count?, has_more?} on success,
// {success:false, error} on failure. Every data-layer error is
// normalized here; internal details are logged, never returned.

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func respondList(c *gin.Context, data interface{}, count int, hasMore bool) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     data,
		"count":    count,
		"has_more": hasMore,
	})
}

func respondError(c *gin.Context, err error) {
	if errs.KindOf(err) == errs.KindInternal {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(errs.HTTPStatus(err), gin.H{"success": false, "error": errs.PublicMessage(err)})
}

// currentUserID reads the id set by the auth middleware; 0 means
// anonymous.
func currentUserID(c *gin.Context) int64 {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Validation("invalid " + name)
	}
	return id, nil
}

func pageParams(c *gin.Context) (page, limit int) {
	page = 1
	limit = 20
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}
