package handlers

import (
	"errors"
	"io"
	"net/http"

	"todo_api/internal/models"
	"todo_api/internal/service"

	"github.com/gin-gonic/gin"
)

type createTodoRequest struct {
	Text string `json:"text" example:"Walk the dog"`
}

// updateTodoRequest distinguishes absent fields from zero values.
type updateTodoRequest struct {
	Text      *string `json:"text,omitempty" example:"Walk the cat"`
	Completed *bool   `json:"completed,omitempty" example:"true"`
}

// @Summary      Create todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        body  body      createTodoRequest  true  "Todo"
// @Success      200   {object}  models.Todo
// @Failure      400   {object}  map[string]string
// @Failure      401
// @Router       /todos [post]
// @Security     TokenAuth
func (h *Handler) createTodo(c *gin.Context) {
	var req createTodoRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	user := currentUser(c)
	todo, err := h.services.Todos.Create(c.Request.Context(), user.ID, req.Text)
	if err != nil {
		h.respondError(c, err, http.StatusBadRequest, "todo_create_failed", "user", user.ID.Hex())
		return
	}
	c.JSON(http.StatusOK, todo)
}

// @Summary      List todos
// @Description  Only the caller's own todos, in creation order.
// @Tags         todos
// @Produce      json
// @Success      200  {object}  map[string][]models.Todo
// @Failure      400  {object}  map[string]string
// @Failure      401
// @Router       /todos [get]
// @Security     TokenAuth
func (h *Handler) listTodos(c *gin.Context) {
	user := currentUser(c)
	todos, err := h.services.Todos.List(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, err, http.StatusBadRequest, "todo_list_failed", "user", user.ID.Hex())
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos})
}

// @Summary      Get todo
// @Tags         todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  map[string]models.Todo
// @Failure      400  {object}  map[string]string
// @Failure      401
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /todos/{id} [get]
// @Security     TokenAuth
func (h *Handler) getTodo(c *gin.Context) {
	user := currentUser(c)
	todo, err := h.services.Todos.Get(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "todo_get_failed", "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todo})
}

// @Summary      Update todo
// @Description  completed=true stamps completedAt; otherwise completed is reset to false and completedAt to null.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Todo ID"
// @Param        body  body      updateTodoRequest  true  "Fields to change"
// @Success      200   {object}  map[string]models.Todo
// @Failure      400   {object}  map[string]string
// @Failure      401
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /todos/{id} [patch]
// @Security     TokenAuth
func (h *Handler) updateTodo(c *gin.Context) {
	var req updateTodoRequest
	// an empty body is a valid update that only clears completion
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	user := currentUser(c)
	patch := service.TodoPatch{Text: req.Text, Completed: req.Completed}
	todo, err := h.services.Todos.Update(c.Request.Context(), c.Param("id"), user.ID, patch)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "todo_update_failed", "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todo})
}

// @Summary      Delete todo
// @Tags         todos
// @Produce      json
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  map[string]models.Todo
// @Failure      400  {object}  map[string]string
// @Failure      401
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /todos/{id} [delete]
// @Security     TokenAuth
func (h *Handler) deleteTodo(c *gin.Context) {
	user := currentUser(c)
	todo, err := h.services.Todos.Delete(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		h.respondError(c, err, http.StatusInternalServerError, "todo_delete_failed", "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todo})
}
