package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func errInvalidState(raw string) error {
	return fmt.Errorf("unknown state %q", raw)
}
