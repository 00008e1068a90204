package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
)

func Root(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{
    "name":    "Taskpilot Backend API",
    "version": "1.0.0",
    "status":  "running",
  })
}

func Healthz(c *gin.Context) {
  c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
