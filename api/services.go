package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse("rooms", s.Coordinator().Rooms()))
}

type getRoomRequest struct {
	Name string `uri:"name" binding:"required"`
}

func (s *Server) GetRoom(c *gin.Context) {
	var data getRoomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	room, ok := s.Coordinator().Room(data.Name)

	if !ok {
		c.JSON(http.StatusNotFound, errorResponse("room not found"))
		return
	}

	c.JSON(http.StatusOK, successResponse("room data", room))
}
